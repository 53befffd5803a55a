package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedTimestamp marks a timestamp field that fails to parse. It is
// fatal for the affected row.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// RowSource yields raw relational records from the legacy database. Message
// rows for a thread are returned in thread-local chronological order; the
// ordering is enforced by the implementation, not assumed of the schema.
type RowSource interface {
	Threads(ctx context.Context) ([]ThreadRow, error)
	ThreadMessages(ctx context.Context, threadID int64) ([]MessageRow, error)
	BlockedUsers(ctx context.Context) ([]BlockedUserRow, error)
	Snippets(ctx context.Context) ([]SnippetRow, error)
	Close() error
}

// ThreadRow mirrors one row of the legacy `threads` table.
type ThreadRow struct {
	ID                 int64
	Status             int64
	IsLegacy           bool
	UserID             int64
	UserName           string
	ChannelID          int64
	CreatedAt          time.Time
	ScheduledCloseAt   time.Time // zero when no close is scheduled
	ScheduledCloseID   string
	ScheduledCloseName string
	AlertID            string
}

// MessageRow mirrors one row of the legacy `thread_messages` table.
type MessageRow struct {
	ID          int64
	ThreadID    int64
	Type        int64
	UserID      int64
	UserName    string
	Body        string
	Anonymous   bool
	DMMessageID string
	CreatedAt   time.Time
}

// BlockedUserRow mirrors one row of the legacy `blocked_users` table.
// Read for reporting only; replaying blocks is outside this tool's scope.
type BlockedUserRow struct {
	UserID    int64
	UserName  string
	BlockedBy int64
	BlockedAt time.Time
}

// SnippetRow mirrors one row of the legacy `snippets` table. Read for
// reporting only.
type SnippetRow struct {
	Trigger   string
	Body      string
	CreatedBy int64
	CreatedAt time.Time
}

// timestampLayouts are the shapes the legacy schema stores timestamps in:
// ISO-8601 with either a space or a T separator, with or without a
// fractional part.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
}

// ParseTimestamp parses a legacy timestamp string. The empty string returns
// the zero time without error; anything else that fails every known layout
// is ErrMalformedTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// FormatTimestamp renders a timestamp the way the successor system stores
// them in documents.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
