package progress

import (
	"sync"
	"time"

	"github.com/moleculab/chemmirror/internal/domain"
)

// Reporter receives per-file download outcomes during a mirror pass.
type Reporter interface {
	// Record tallies one download outcome
	Record(outcome domain.Outcome)
}

// Summary implements Reporter by counting outcomes. One Summary covers
// one mirror pass; restarted passes get a fresh Summary so the counts
// reflect the attempt that completed.
type Summary struct {
	mu      sync.Mutex
	counts  map[domain.Outcome]int
	started time.Time
}

// NewSummary creates an empty summary with the clock started.
func NewSummary() *Summary {
	return &Summary{
		counts:  make(map[domain.Outcome]int),
		started: time.Now(),
	}
}

// Record implements the Reporter interface.
func (s *Summary) Record(outcome domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[outcome]++
}

// Count returns the tally for one outcome.
func (s *Summary) Count(outcome domain.Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[outcome]
}

// Fetched returns the number of files downloaded in the pass.
func (s *Summary) Fetched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[domain.OutcomeFetched]
}

// Elapsed returns the time since the summary was created.
func (s *Summary) Elapsed() time.Duration {
	return time.Since(s.started)
}

// LogAttrs returns the summary as structured log attributes.
func (s *Summary) LogAttrs() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []any{
		"fetched", s.counts[domain.OutcomeFetched],
		"skipped", s.counts[domain.OutcomeSkippedAlreadyValid],
		"refreshed", s.counts[domain.OutcomeRefreshedSidecar],
		"already_present", s.counts[domain.OutcomeFailedAlreadyPresent],
		"ignored", s.counts[domain.OutcomeIgnored],
		"elapsed", time.Since(s.started).Round(time.Millisecond).String(),
	}
}

// NullReporter discards outcomes.
type NullReporter struct{}

// Record implements the Reporter interface.
func (NullReporter) Record(outcome domain.Outcome) {}
