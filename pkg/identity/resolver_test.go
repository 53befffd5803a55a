package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"modmigrate/pkg/models"
)

// stubDirectory counts remote lookups and can fail a configured number of
// times before succeeding.
type stubDirectory struct {
	mu       sync.Mutex
	roster   *Roster
	remote   map[int64]*models.Identity
	failures int
	fetches  int
}

func (d *stubDirectory) Get(id int64) *models.Identity { return d.roster.Get(id) }

func (d *stubDirectory) ByTag(tag string) *models.Identity { return d.roster.ByTag(tag) }

func (d *stubDirectory) Fetch(ctx context.Context, id int64) (*models.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetches++
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("temporarily unavailable")
	}
	if ident, ok := d.remote[id]; ok {
		return ident, nil
	}
	return nil, ErrNotFound
}

func (d *stubDirectory) fetchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetches
}

func fastResolver(dir Directory) *Resolver {
	r := NewResolver(dir)
	r.initial = time.Millisecond
	return r
}

func TestResolveZeroID(t *testing.T) {
	r := fastResolver(&stubDirectory{})
	ident, err := r.Resolve(context.Background(), 0)
	if err != nil || ident != nil {
		t.Fatalf("Resolve(0) = (%v, %v), want (nil, nil)", ident, err)
	}
	if r.CachedLen() != 0 {
		t.Fatalf("zero id should not be cached")
	}
}

func TestResolveMemoizesHits(t *testing.T) {
	alice := &models.Identity{ID: 1001, Name: "Alice", Discriminator: "0001"}
	dir := &stubDirectory{remote: map[int64]*models.Identity{1001: alice}}
	r := fastResolver(dir)

	for i := 0; i < 5; i++ {
		got, err := r.Resolve(context.Background(), 1001)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got != alice {
			t.Fatalf("got %+v, want alice", got)
		}
	}
	if n := dir.fetchCount(); n != 1 {
		t.Fatalf("remote fetched %d times, want 1", n)
	}
}

func TestResolveMemoizesMisses(t *testing.T) {
	dir := &stubDirectory{}
	r := fastResolver(dir)

	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), 404)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got != nil {
			t.Fatalf("got %+v, want nil for unresolvable id", got)
		}
	}
	if n := dir.fetchCount(); n != 1 {
		t.Fatalf("remote fetched %d times, want 1 (miss should be cached)", n)
	}
	if r.CachedLen() != 1 {
		t.Fatalf("cached = %d, want 1", r.CachedLen())
	}
}

func TestResolveCollapsesConcurrentLookups(t *testing.T) {
	alice := &models.Identity{ID: 1001, Name: "Alice", Discriminator: "0001"}
	dir := &stubDirectory{remote: map[int64]*models.Identity{1001: alice}}
	r := fastResolver(dir)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Resolve(context.Background(), 1001)
			if err != nil || got != alice {
				t.Errorf("Resolve = (%v, %v)", got, err)
			}
		}()
	}
	wg.Wait()
	if n := dir.fetchCount(); n != 1 {
		t.Fatalf("remote fetched %d times under concurrency, want 1", n)
	}
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	alice := &models.Identity{ID: 1001, Name: "Alice", Discriminator: "0001"}
	dir := &stubDirectory{
		remote:   map[int64]*models.Identity{1001: alice},
		failures: 2,
	}
	r := fastResolver(dir)

	got, err := r.Resolve(context.Background(), 1001)
	if err != nil {
		t.Fatalf("resolve after transient failures: %v", err)
	}
	if got != alice {
		t.Fatalf("got %+v, want alice", got)
	}
	if n := dir.fetchCount(); n != 3 {
		t.Fatalf("remote fetched %d times, want 3 (two failures, one success)", n)
	}
}

func TestResolveGivesUpAfterRetryBudget(t *testing.T) {
	dir := &stubDirectory{failures: 100}
	r := fastResolver(dir)

	_, err := r.Resolve(context.Background(), 1001)
	if err == nil {
		t.Fatalf("want error once the retry budget is exhausted")
	}
	if r.CachedLen() != 0 {
		t.Fatalf("transient failure must not be cached")
	}
}

func TestResolvePrefersRoster(t *testing.T) {
	mod := models.Identity{ID: 10, Name: "Mod", Discriminator: "9999"}
	dir := &stubDirectory{roster: NewRoster([]models.Identity{mod})}
	r := fastResolver(dir)

	got, err := r.Resolve(context.Background(), 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || got.ID != 10 {
		t.Fatalf("got %+v, want roster identity", got)
	}
	if n := dir.fetchCount(); n != 0 {
		t.Fatalf("remote fetched %d times for a roster id, want 0", n)
	}
}
