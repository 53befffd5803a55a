package convert

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"modmigrate/pkg/models"
	"modmigrate/pkg/source"
)

// keyBytes sizes the random document key: 12 hex chars gives a token space
// large enough that collisions are negligible for realistic batch sizes.
const keyBytes = 6

// NewKey returns a fresh random document key, used as both the public log
// identifier and the storage key.
func NewKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate document key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Serialize projects a Thread aggregate into the canonical document shape.
// The guild id comes from the run context, not the thread. The recipient
// identity block is mandatory in the target schema, so a nil recipient
// fails with ErrThreadRecipientUnresolved rather than producing a document
// with a hole in it.
func Serialize(t models.Thread, guildID string) (models.Document, error) {
	if t.Recipient == nil {
		return models.Document{}, fmt.Errorf("%w: thread %d", ErrThreadRecipientUnresolved, t.ID)
	}

	key, err := NewKey()
	if err != nil {
		return models.Document{}, err
	}

	doc := models.Document{
		Key:       key,
		MongoID:   key,
		Open:      t.Status != models.ThreadStatusClosed,
		ChannelID: strconv.FormatInt(t.ChannelID, 10),
		GuildID:   guildID,
		CreatedAt: source.FormatTimestamp(t.CreatedAt),
		ClosedAt:  source.FormatTimestamp(t.ScheduledCloseAt),
		Recipient: identityDoc(t.Recipient, false),
		Creator:   identityDoc(t.Creator, t.CreatorIsMod),
		Closer:    identityDoc(t.Closer, true),
		Messages:  make([]*models.MessageDoc, 0, len(t.Messages)),
	}

	for _, m := range t.Messages {
		if md := projectMessage(m); md != nil {
			doc.Messages = append(doc.Messages, md)
		}
	}
	return doc, nil
}

// projectMessage returns the document projection for a message, or nil for
// the types that exist only to drive assembly heuristics.
func projectMessage(m models.ThreadMessage) *models.MessageDoc {
	if m.Type != models.MessageTypeFromUser && m.Type != models.MessageTypeToUser {
		return nil
	}
	attachments := m.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return &models.MessageDoc{
		Timestamp:   source.FormatTimestamp(m.CreatedAt),
		MessageID:   m.DMMessageID,
		Content:     m.Content,
		Author:      identityDoc(m.Author, m.Type == models.MessageTypeToUser),
		Attachments: attachments,
	}
}

// identityDoc projects an identity, passing nil through as JSON null.
func identityDoc(i *models.Identity, mod bool) *models.IdentityDoc {
	if i == nil {
		return nil
	}
	return &models.IdentityDoc{
		ID:            strconv.FormatInt(i.ID, 10),
		Name:          i.Name,
		Discriminator: i.Discriminator,
		AvatarURL:     i.AvatarURL,
		Mod:           mod,
	}
}
