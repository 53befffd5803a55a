package runner

import (
	"fmt"
	"strings"
	"time"
)

// ConvertedThread records one successful conversion.
type ConvertedThread struct {
	ThreadID int64
	Key      string
	LogURL   string
}

// ThreadFailure records one failed conversion with its reason. Failures
// are per thread; the batch always runs to completion.
type ThreadFailure struct {
	ThreadID int64
	Err      error
}

// Report is the outcome of one migration run.
type Report struct {
	RunID        string
	Converted    []ConvertedThread
	Failed       []ThreadFailure
	BlockedUsers int
	Snippets     int
	Duration     time.Duration
}

// Summary renders the human-readable run summary.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Migration run %s\n", r.RunID)
	fmt.Fprintf(&b, "Converted %d thread(s), %d failed, in %s\n",
		len(r.Converted), len(r.Failed), r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Observed %d blocked user(s) and %d snippet(s) (not replayed)\n",
		r.BlockedUsers, r.Snippets)
	for _, c := range r.Converted {
		if c.LogURL != "" {
			fmt.Fprintf(&b, "Posted thread log: %s\n", c.LogURL)
		} else {
			fmt.Fprintf(&b, "Posted thread log: key %s (thread %d)\n", c.Key, c.ThreadID)
		}
	}
	for _, f := range r.Failed {
		fmt.Fprintf(&b, "Thread %d failed: %v\n", f.ThreadID, f.Err)
	}
	return b.String()
}
