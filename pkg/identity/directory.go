package identity

import (
	"context"
	"errors"

	"modmigrate/pkg/models"
)

// ErrNotFound is returned by Directory.Fetch for a permanent miss (e.g. a
// deleted account). It is not a failure: callers resolve it to a nil
// identity. Any other error from Fetch is transient and retryable.
var ErrNotFound = errors.New("identity not found")

// Directory is the identity lookup backend for one migration run.
type Directory interface {
	// Get returns the identity from the locally known roster, or nil.
	Get(id int64) *models.Identity
	// Fetch looks the identity up remotely. Permanent misses return
	// ErrNotFound; transport and server failures are transient.
	Fetch(ctx context.Context, id int64) (*models.Identity, error)
	// ByTag returns the identity whose "name#discriminator" tag matches
	// exactly, from the currently-known identity set, or nil.
	ByTag(tag string) *models.Identity
}
