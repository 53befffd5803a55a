package models

import "time"

// MessageType classifies one logged thread event.
type MessageType string

const (
	MessageTypeSystem   MessageType = "system"
	MessageTypeChat     MessageType = "chat"
	MessageTypeFromUser MessageType = "from_user"
	MessageTypeToUser   MessageType = "to_user"
	MessageTypeLegacy   MessageType = "legacy"
	MessageTypeCommand  MessageType = "command"
)

// MessageTypes maps the legacy numeric message-type codes to their names.
// The table is closed: any code outside it is a schema mismatch, not data
// to be papered over.
var MessageTypes = map[int64]MessageType{
	1: MessageTypeSystem,
	2: MessageTypeChat,
	3: MessageTypeFromUser,
	4: MessageTypeToUser,
	5: MessageTypeLegacy,
	6: MessageTypeCommand,
}

// ThreadMessage is one classified event within a thread. Content and
// Attachments are derived from Body exactly once at classification time
// and never recomputed.
type ThreadMessage struct {
	ID          int64
	Type        MessageType
	Author      *Identity
	Body        string
	Content     string
	Attachments []string
	Anonymous   bool
	DMMessageID string
	CreatedAt   time.Time
}
