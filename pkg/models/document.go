package models

// Document is the canonical output record persisted for one migrated
// thread. Field names match the successor system's log schema; Key doubles
// as the public identifier and the storage key.
type Document struct {
	Key       string        `json:"key"`
	MongoID   string        `json:"_id"`
	Open      bool          `json:"open"`
	ChannelID string        `json:"channel_id"`
	GuildID   string        `json:"guild_id"`
	CreatedAt string        `json:"created_at"`
	ClosedAt  string        `json:"closed_at"`
	Closer    *IdentityDoc  `json:"closer"`
	Recipient *IdentityDoc  `json:"recipient"`
	Creator   *IdentityDoc  `json:"creator"`
	Messages  []*MessageDoc `json:"messages"`
}

// IdentityDoc is the identity projection embedded in documents.
type IdentityDoc struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Discriminator string `json:"discriminator"`
	AvatarURL     string `json:"avatar_url"`
	Mod           bool   `json:"mod"`
}

// MessageDoc is the message projection embedded in documents. Only
// from_user and to_user messages project; every other type exists solely to
// drive assembly heuristics and never appears in the persisted log.
type MessageDoc struct {
	Timestamp   string       `json:"timestamp"`
	MessageID   string       `json:"message_id"`
	Content     string       `json:"content"`
	Author      *IdentityDoc `json:"author"`
	Attachments []string     `json:"attachments"`
}
