package source

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"modmigrate/pkg/logger"
)

// SQLiteSource reads the legacy database through database/sql.
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// Open opens the legacy SQLite database at path for reading.
func Open(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open source database %s: %w", path, err)
	}
	// The legacy file is never written; refuse accidental writes.
	if _, err := db.Exec("PRAGMA query_only=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set query_only on %s: %w", path, err)
	}
	logger.Info("source_opened", "path", path)
	return &SQLiteSource{db: db, path: path}, nil
}

// Close closes the underlying handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Threads returns every row of the legacy threads table.
func (s *SQLiteSource) Threads(ctx context.Context) ([]ThreadRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, is_legacy, user_id, user_name, channel_id,
		       created_at, scheduled_close_at, scheduled_close_id,
		       scheduled_close_name, alert_id
		FROM threads
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()

	var out []ThreadRow
	for rows.Next() {
		var (
			tr                 ThreadRow
			isLegacy           sql.NullInt64
			userID, channelID  sql.NullString
			userName           sql.NullString
			createdAt, closeAt sql.NullString
			closeID, closeName sql.NullString
			alertID            sql.NullString
		)
		if err := rows.Scan(&tr.ID, &tr.Status, &isLegacy, &userID, &userName,
			&channelID, &createdAt, &closeAt, &closeID, &closeName, &alertID); err != nil {
			return nil, fmt.Errorf("scan thread row: %w", err)
		}
		tr.IsLegacy = isLegacy.Int64 != 0
		tr.UserID = parseID(userID)
		tr.UserName = userName.String
		tr.ChannelID = parseID(channelID)
		if tr.CreatedAt, err = ParseTimestamp(createdAt.String); err != nil {
			return nil, fmt.Errorf("thread %d created_at: %w", tr.ID, err)
		}
		if tr.ScheduledCloseAt, err = ParseTimestamp(closeAt.String); err != nil {
			return nil, fmt.Errorf("thread %d scheduled_close_at: %w", tr.ID, err)
		}
		tr.ScheduledCloseID = closeID.String
		tr.ScheduledCloseName = closeName.String
		tr.AlertID = alertID.String
		out = append(out, tr)
	}
	return out, rows.Err()
}

// ThreadMessages returns the message rows for one thread ordered by
// creation time (id as tiebreak), making the chronological-order guarantee
// explicit instead of trusting insertion order.
func (s *SQLiteSource) ThreadMessages(ctx context.Context, threadID int64) ([]MessageRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, message_type, user_id, user_name, body,
		       is_anonymous, dm_message_id, created_at
		FROM thread_messages
		WHERE thread_id = ?
		ORDER BY created_at, id
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query messages for thread %d: %w", threadID, err)
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		var (
			mr          MessageRow
			userID      sql.NullString
			userName    sql.NullString
			body        sql.NullString
			anonymous   sql.NullInt64
			dmMessageID sql.NullString
			createdAt   sql.NullString
		)
		if err := rows.Scan(&mr.ID, &mr.ThreadID, &mr.Type, &userID, &userName,
			&body, &anonymous, &dmMessageID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		mr.UserID = parseID(userID)
		mr.UserName = userName.String
		mr.Body = body.String
		mr.Anonymous = anonymous.Int64 != 0
		mr.DMMessageID = dmMessageID.String
		if mr.CreatedAt, err = ParseTimestamp(createdAt.String); err != nil {
			return nil, fmt.Errorf("message %d created_at: %w", mr.ID, err)
		}
		out = append(out, mr)
	}
	return out, rows.Err()
}

// BlockedUsers returns every row of the legacy blocked_users table.
func (s *SQLiteSource) BlockedUsers(ctx context.Context) ([]BlockedUserRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, user_name, blocked_by, blocked_at FROM blocked_users
	`)
	if err != nil {
		return nil, fmt.Errorf("query blocked_users: %w", err)
	}
	defer rows.Close()

	var out []BlockedUserRow
	for rows.Next() {
		var (
			br                BlockedUserRow
			userID, blockedBy sql.NullString
			userName          sql.NullString
			blockedAt         sql.NullString
		)
		if err := rows.Scan(&userID, &userName, &blockedBy, &blockedAt); err != nil {
			return nil, fmt.Errorf("scan blocked_users row: %w", err)
		}
		br.UserID = parseID(userID)
		br.UserName = userName.String
		br.BlockedBy = parseID(blockedBy)
		if br.BlockedAt, err = ParseTimestamp(blockedAt.String); err != nil {
			return nil, fmt.Errorf("blocked user %d blocked_at: %w", br.UserID, err)
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

// Snippets returns every row of the legacy snippets table.
func (s *SQLiteSource) Snippets(ctx context.Context) ([]SnippetRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT "trigger", body, created_by, created_at FROM snippets
	`)
	if err != nil {
		return nil, fmt.Errorf("query snippets: %w", err)
	}
	defer rows.Close()

	var out []SnippetRow
	for rows.Next() {
		var (
			sr        SnippetRow
			trigger   sql.NullString
			body      sql.NullString
			createdBy sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&trigger, &body, &createdBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan snippets row: %w", err)
		}
		sr.Trigger = trigger.String
		sr.Body = body.String
		sr.CreatedBy = parseID(createdBy)
		if sr.CreatedAt, err = ParseTimestamp(createdAt.String); err != nil {
			return nil, fmt.Errorf("snippet %q created_at: %w", sr.Trigger, err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// parseID converts a legacy id column to int64. The legacy schema stores
// snowflake ids as text in some deployments and integers in others; empty
// and NULL both mean "absent" and map to 0.
func parseID(v sql.NullString) int64 {
	s := strings.TrimSpace(v.String)
	if !v.Valid || s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
