package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"modmigrate/pkg/config"
	"modmigrate/pkg/convert"
	"modmigrate/pkg/docstore"
	"modmigrate/pkg/logger"
	"modmigrate/pkg/source"
)

// Runner drives the migration batch: every thread row is converted
// (rows -> assemble -> serialize -> insert) independently, fanned out under
// a bounded semaphore so the identity backend is never hit by an unbounded
// number of concurrent lookups. A thread's failure is recorded and never
// aborts or cancels the rest of the batch.
type Runner struct {
	Source    source.RowSource
	Store     docstore.Store
	Assembler *convert.Assembler

	GuildID      string
	LogURL       string
	LogURLPrefix string
	Workers      int
}

// Run converts every thread and returns the batch report. The returned
// error covers only batch-level failures (listing threads); per-thread
// failures live in the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	workers := r.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	report := &Report{RunID: uuid.NewString()}
	logger.Info("migration_started", "run", report.RunID, "workers", workers)

	// Blocked users and snippets are reported, not replayed: writing them
	// into a live configuration store is out of scope here.
	if rows, err := r.Source.BlockedUsers(ctx); err != nil {
		logger.Warn("blocked_users_read_failed", "error", err)
	} else {
		report.BlockedUsers = len(rows)
	}
	if rows, err := r.Source.Snippets(ctx); err != nil {
		logger.Warn("snippets_read_failed", "error", err)
	} else {
		report.Snippets = len(rows)
	}

	threads, err := r.Source.Threads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(int64(workers))
	)
	for _, tr := range threads {
		if err := sem.Acquire(ctx, 1); err != nil {
			// The run context was cancelled; stop launching work.
			mu.Lock()
			report.Failed = append(report.Failed, ThreadFailure{ThreadID: tr.ID, Err: err})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(tr source.ThreadRow) {
			defer wg.Done()
			defer sem.Release(1)
			key, err := r.convertThread(ctx, tr)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				threadsFailed.Inc()
				logger.Error("thread_conversion_failed", "thread", tr.ID, "error", err)
				report.Failed = append(report.Failed, ThreadFailure{ThreadID: tr.ID, Err: err})
				return
			}
			threadsConverted.Inc()
			url := BuildLogURL(r.LogURL, r.LogURLPrefix, key)
			logger.Info("thread_converted", "thread", tr.ID, "key", key, "url", url)
			report.Converted = append(report.Converted, ConvertedThread{ThreadID: tr.ID, Key: key, LogURL: url})
		}(tr)
	}
	wg.Wait()

	report.Duration = time.Since(start)
	logger.Info("migration_finished",
		"run", report.RunID,
		"converted", len(report.Converted),
		"failed", len(report.Failed),
		"duration", report.Duration.String(),
	)
	return report, nil
}

// convertThread runs the per-thread pipeline. Message processing within the
// thread is strictly sequential; the assembly heuristics are order
// sensitive.
func (r *Runner) convertThread(ctx context.Context, tr source.ThreadRow) (string, error) {
	msgs, err := r.Source.ThreadMessages(ctx, tr.ID)
	if err != nil {
		return "", fmt.Errorf("read messages: %w", err)
	}
	thread, err := r.Assembler.Assemble(ctx, tr, msgs)
	if err != nil {
		return "", err
	}
	doc, err := convert.Serialize(thread, r.GuildID)
	if err != nil {
		return "", err
	}
	if err := r.Store.Insert(ctx, doc); err != nil {
		return "", err
	}
	return doc.Key, nil
}

// BuildLogURL joins the configured base URL, the optional path prefix and a
// document key into the public log URL. The NONE sentinel disables the
// prefix entirely.
func BuildLogURL(base, prefix, key string) string {
	if base == "" {
		return ""
	}
	if prefix == config.NoPrefixSentinel {
		prefix = ""
	}
	return strings.TrimRight(base, "/") + prefix + "/" + key
}
