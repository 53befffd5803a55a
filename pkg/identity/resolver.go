package identity

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"golang.org/x/sync/singleflight"

	"modmigrate/pkg/logger"
	"modmigrate/pkg/models"
)

// Resolver resolves participant ids to identities, memoized for the
// lifetime of one migration run. Concurrent first lookups of the same id
// collapse to a single remote call; permanent misses are cached as nil.
type Resolver struct {
	dir Directory

	mu    sync.RWMutex
	cache map[int64]*models.Identity
	group singleflight.Group

	attempts uint
	initial  time.Duration
}

// NewResolver returns a resolver over dir with default retry behavior for
// transient remote failures.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{
		dir:      dir,
		cache:    make(map[int64]*models.Identity),
		attempts: 4,
		initial:  100 * time.Millisecond,
	}
}

// Resolve maps id to an identity or nil. A nil result with a nil error
// means the identity is permanently unresolvable, which is a legitimate
// modeling state, not a failure. Errors are transient lookup failures that
// survived retrying.
func (r *Resolver) Resolve(ctx context.Context, id int64) (*models.Identity, error) {
	if id == 0 {
		return nil, nil
	}

	r.mu.RLock()
	ident, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return ident, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		// Re-check under the flight: a previous flight may have filled
		// the cache between the read above and this call.
		r.mu.RLock()
		cached, ok := r.cache[id]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		ident := r.dir.Get(id)
		if ident == nil {
			fetched, err := r.fetch(ctx, id)
			if err != nil {
				return nil, err
			}
			ident = fetched
		}

		r.mu.Lock()
		r.cache[id] = ident
		r.mu.Unlock()
		return ident, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*models.Identity), nil
}

// fetch performs the remote lookup with capped exponential backoff.
// ErrNotFound is terminal and resolves to nil; retrying is safe because
// lookups are idempotent and side-effect-free.
func (r *Resolver) fetch(ctx context.Context, id int64) (*models.Identity, error) {
	var ident *models.Identity
	err := retry.Retry(func(attempt uint) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		got, err := r.dir.Fetch(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				ident = nil
				return nil
			}
			logger.Warn("identity_fetch_retry", "id", id, "attempt", attempt, "error", err)
			return err
		}
		ident = got
		return nil
	},
		strategy.Limit(r.attempts),
		strategy.Backoff(backoff.BinaryExponential(r.initial)),
	)
	if err != nil {
		return nil, err
	}
	return ident, nil
}

// CachedLen reports how many ids have been memoized (for tests and the run
// report).
func (r *Resolver) CachedLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
