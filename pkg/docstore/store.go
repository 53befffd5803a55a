package docstore

import (
	"context"
	"errors"

	"modmigrate/pkg/models"
)

var (
	// ErrNotFound is returned by Get for an unknown document key.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned by Insert when the key is already taken.
	ErrDuplicateKey = errors.New("duplicate document key")
)

// Store accepts one canonical document per migrated thread, keyed by the
// document's own key.
type Store interface {
	Insert(ctx context.Context, doc models.Document) error
	Get(ctx context.Context, key string) (models.Document, error)
	Count() (int, error)
	Close() error
}
