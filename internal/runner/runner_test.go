package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"modmigrate/pkg/convert"
	"modmigrate/pkg/docstore"
	"modmigrate/pkg/identity"
	"modmigrate/pkg/models"
	"modmigrate/pkg/source"
)

// fakeSource serves canned rows. A thread id in poisoned fails its message
// read to exercise fault isolation.
type fakeSource struct {
	threads  []source.ThreadRow
	messages map[int64][]source.MessageRow
	poisoned map[int64]bool
	blocked  []source.BlockedUserRow
	snippets []source.SnippetRow
}

func (s *fakeSource) Threads(ctx context.Context) ([]source.ThreadRow, error) {
	return s.threads, nil
}

func (s *fakeSource) ThreadMessages(ctx context.Context, threadID int64) ([]source.MessageRow, error) {
	if s.poisoned[threadID] {
		return nil, errors.New("corrupt row")
	}
	return s.messages[threadID], nil
}

func (s *fakeSource) BlockedUsers(ctx context.Context) ([]source.BlockedUserRow, error) {
	return s.blocked, nil
}

func (s *fakeSource) Snippets(ctx context.Context) ([]source.SnippetRow, error) {
	return s.snippets, nil
}

func (s *fakeSource) Close() error { return nil }

// memStore is an in-memory docstore.Store.
type memStore struct {
	mu   sync.Mutex
	docs map[string]models.Document
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]models.Document)}
}

func (s *memStore) Insert(ctx context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.Key]; ok {
		return docstore.ErrDuplicateKey
	}
	s.docs[doc.Key] = doc
	return nil
}

func (s *memStore) Get(ctx context.Context, key string) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	if !ok {
		return models.Document{}, docstore.ErrNotFound
	}
	return doc, nil
}

func (s *memStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs), nil
}

func (s *memStore) Close() error { return nil }

// staticDirectory resolves every id to a fixed identity.
type staticDirectory struct{}

func (staticDirectory) Get(id int64) *models.Identity {
	return &models.Identity{ID: id, Name: "User", Discriminator: "0001"}
}

func (staticDirectory) ByTag(tag string) *models.Identity { return nil }

func (staticDirectory) Fetch(ctx context.Context, id int64) (*models.Identity, error) {
	return nil, identity.ErrNotFound
}

func testRunner(src *fakeSource, store docstore.Store) *Runner {
	dir := staticDirectory{}
	return &Runner{
		Source:       src,
		Store:        store,
		Assembler:    convert.NewAssembler(identity.NewResolver(dir), dir),
		GuildID:      "guild-1",
		LogURL:       "https://logs.example.com",
		LogURLPrefix: "/logs",
		Workers:      4,
	}
}

func threadRow(id int64) source.ThreadRow {
	return source.ThreadRow{
		ID:        id,
		Status:    2,
		UserID:    1000 + id,
		ChannelID: 500 + id,
		CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunConvertsAllThreads(t *testing.T) {
	src := &fakeSource{
		threads: []source.ThreadRow{threadRow(1), threadRow(2), threadRow(3)},
		messages: map[int64][]source.MessageRow{
			1: {{ID: 1, Type: 3, UserID: 1001, Body: "hi", CreatedAt: time.Now()}},
		},
		blocked:  []source.BlockedUserRow{{UserID: 3003}},
		snippets: []source.SnippetRow{{Trigger: "faq"}, {Trigger: "rules"}},
	}
	store := newMemStore()

	report, err := testRunner(src, store).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Converted) != 3 || len(report.Failed) != 0 {
		t.Fatalf("converted/failed = %d/%d, want 3/0", len(report.Converted), len(report.Failed))
	}
	if report.BlockedUsers != 1 || report.Snippets != 2 {
		t.Fatalf("blocked/snippets = %d/%d, want 1/2", report.BlockedUsers, report.Snippets)
	}
	if n, _ := store.Count(); n != 3 {
		t.Fatalf("stored %d documents, want 3", n)
	}
	for _, c := range report.Converted {
		if c.Key == "" {
			t.Fatalf("thread %d has no key", c.ThreadID)
		}
		want := "https://logs.example.com/logs/" + c.Key
		if c.LogURL != want {
			t.Fatalf("log url = %q, want %q", c.LogURL, want)
		}
	}
}

func TestRunIsolatesThreadFailures(t *testing.T) {
	src := &fakeSource{
		threads:  []source.ThreadRow{threadRow(1), threadRow(2), threadRow(3)},
		poisoned: map[int64]bool{2: true},
	}
	store := newMemStore()

	report, err := testRunner(src, store).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Converted) != 2 {
		t.Fatalf("converted = %d, want 2 despite one poisoned thread", len(report.Converted))
	}
	if len(report.Failed) != 1 || report.Failed[0].ThreadID != 2 {
		t.Fatalf("failed = %+v, want exactly thread 2", report.Failed)
	}
}

func TestRunUnknownStatusIsPerThread(t *testing.T) {
	bad := threadRow(2)
	bad.Status = 9
	src := &fakeSource{threads: []source.ThreadRow{threadRow(1), bad}}
	store := newMemStore()

	report, err := testRunner(src, store).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Converted) != 1 || len(report.Failed) != 1 {
		t.Fatalf("converted/failed = %d/%d, want 1/1", len(report.Converted), len(report.Failed))
	}
	if !errors.Is(report.Failed[0].Err, convert.ErrUnknownThreadStatus) {
		t.Fatalf("failure = %v, want ErrUnknownThreadStatus", report.Failed[0].Err)
	}
}

func TestSummaryListsOutcomes(t *testing.T) {
	r := &Report{
		RunID: "run-1",
		Converted: []ConvertedThread{
			{ThreadID: 1, Key: "abc", LogURL: "https://logs.example.com/logs/abc"},
		},
		Failed:       []ThreadFailure{{ThreadID: 2, Err: errors.New("corrupt row")}},
		BlockedUsers: 1,
		Snippets:     2,
	}
	s := r.Summary()
	for _, want := range []string{
		"Converted 1 thread(s), 1 failed",
		"Posted thread log: https://logs.example.com/logs/abc",
		"Thread 2 failed: corrupt row",
		"1 blocked user(s) and 2 snippet(s)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestBuildLogURL(t *testing.T) {
	cases := []struct {
		base, prefix, want string
	}{
		{"https://logs.example.com", "/logs", "https://logs.example.com/logs/k"},
		{"https://logs.example.com/", "/logs", "https://logs.example.com/logs/k"},
		{"https://logs.example.com", "NONE", "https://logs.example.com/k"},
		{"", "/logs", ""},
	}
	for _, tc := range cases {
		if got := BuildLogURL(tc.base, tc.prefix, "k"); got != tc.want {
			t.Errorf("BuildLogURL(%q, %q) = %q, want %q", tc.base, tc.prefix, got, tc.want)
		}
	}
}
