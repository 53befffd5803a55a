package convert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"modmigrate/pkg/identity"
	"modmigrate/pkg/models"
	"modmigrate/pkg/source"
)

// openedByPrefix marks the system message emitted when a moderator opened
// the thread with the newthread command.
const openedByPrefix = "Thread was opened by "

// Assembler folds a thread row and its ordered message rows into a Thread
// aggregate.
type Assembler struct {
	classifier *Classifier
	resolver   *identity.Resolver
	dir        identity.Directory
}

// NewAssembler returns an assembler using resolver for participant lookups
// and dir's tag index for the creator heuristic.
func NewAssembler(resolver *identity.Resolver, dir identity.Directory) *Assembler {
	return &Assembler{
		classifier: NewClassifier(resolver),
		resolver:   resolver,
		dir:        dir,
	}
}

// Assemble builds the Thread aggregate. The status table is closed
// (ErrUnknownThreadStatus otherwise). Creator, CreatorIsMod and Closer
// start from their defaults and are settled by exactly one forward pass
// over the classified messages applying two independent heuristics:
//
//   - closer: every command message whose content contains "close" sets the
//     closer; the last qualifying message wins, so a cancelled close
//     followed by a real one credits the right moderator.
//   - creator: the first system message starting with the opened-by prefix
//     carries a name#discriminator tag; an exact tag-index hit marks the
//     thread as moderator-created. The heuristic considers only that first
//     message.
//
// Messages are not mutated after classification.
func (a *Assembler) Assemble(ctx context.Context, tr source.ThreadRow, msgRows []source.MessageRow) (models.Thread, error) {
	status, ok := models.ThreadStatuses[tr.Status]
	if !ok {
		return models.Thread{}, fmt.Errorf("%w: code %d (thread %d)", ErrUnknownThreadStatus, tr.Status, tr.ID)
	}

	recipient, err := a.resolver.Resolve(ctx, tr.UserID)
	if err != nil {
		return models.Thread{}, fmt.Errorf("resolve recipient of thread %d: %w", tr.ID, err)
	}

	scheduledCloseAt := tr.ScheduledCloseAt
	if scheduledCloseAt.IsZero() {
		scheduledCloseAt = time.Now().UTC()
	}

	thread := models.Thread{
		ID:               tr.ID,
		Status:           status,
		Recipient:        recipient,
		Creator:          recipient,
		CreatorIsMod:     false,
		Closer:           nil,
		ChannelID:        tr.ChannelID,
		CreatedAt:        tr.CreatedAt,
		ScheduledCloseAt: scheduledCloseAt,
		ScheduledCloseID: tr.ScheduledCloseID,
		AlertID:          tr.AlertID,
		Messages:         make([]models.ThreadMessage, 0, len(msgRows)),
	}

	openedBySeen := false
	for _, row := range msgRows {
		msg, err := a.classifier.Classify(ctx, row)
		if err != nil {
			return models.Thread{}, fmt.Errorf("thread %d: %w", tr.ID, err)
		}

		if msg.Type == models.MessageTypeCommand && strings.Contains(msg.Content, "close") {
			thread.Closer = msg.Author
		}

		if !openedBySeen && msg.Type == models.MessageTypeSystem && strings.HasPrefix(msg.Content, openedByPrefix) {
			openedBySeen = true
			tag := strings.TrimSpace(msg.Content[len(openedByPrefix):])
			if mod := a.dir.ByTag(tag); mod != nil {
				thread.Creator = mod
				thread.CreatorIsMod = true
			}
		}

		thread.Messages = append(thread.Messages, msg)
	}

	return thread, nil
}
