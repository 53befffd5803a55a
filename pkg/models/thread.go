package models

import "time"

// ThreadStatus is the lifecycle state of a support thread.
type ThreadStatus string

const (
	ThreadStatusOpen      ThreadStatus = "open"
	ThreadStatusClosed    ThreadStatus = "closed"
	ThreadStatusSuspended ThreadStatus = "suspended"
)

// ThreadStatuses maps the legacy numeric status codes to their names.
// Closed table; an unknown code is fatal for the thread.
var ThreadStatuses = map[int64]ThreadStatus{
	1: ThreadStatusOpen,
	2: ThreadStatusClosed,
	3: ThreadStatusSuspended,
}

// Thread is the reconstructed aggregate for one support conversation.
// Creator, CreatorIsMod and Closer start from defaults
// (creator = recipient, not a moderator, no closer) and are settled by a
// single forward pass over Messages during assembly; the aggregate is not
// mutated afterwards.
type Thread struct {
	ID               int64
	Status           ThreadStatus
	Recipient        *Identity
	Creator          *Identity
	CreatorIsMod     bool
	Closer           *Identity
	ChannelID        int64
	CreatedAt        time.Time
	ScheduledCloseAt time.Time
	ScheduledCloseID string
	AlertID          string
	Messages         []ThreadMessage
}
