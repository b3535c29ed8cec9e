package progress

import (
	"testing"

	"github.com/moleculab/chemmirror/internal/domain"
)

func TestSummary_Tally(t *testing.T) {
	s := NewSummary()

	s.Record(domain.OutcomeFetched)
	s.Record(domain.OutcomeFetched)
	s.Record(domain.OutcomeSkippedAlreadyValid)
	s.Record(domain.OutcomeRefreshedSidecar)

	if got := s.Fetched(); got != 2 {
		t.Errorf("expected 2 fetched, got %d", got)
	}
	if got := s.Count(domain.OutcomeSkippedAlreadyValid); got != 1 {
		t.Errorf("expected 1 skipped, got %d", got)
	}
	if got := s.Count(domain.OutcomeFailedAlreadyPresent); got != 0 {
		t.Errorf("expected 0 already-present, got %d", got)
	}
}

func TestSummary_LogAttrs(t *testing.T) {
	s := NewSummary()
	s.Record(domain.OutcomeFetched)

	attrs := s.LogAttrs()
	if len(attrs)%2 != 0 {
		t.Fatalf("attrs must be key/value pairs, got %d entries", len(attrs))
	}

	found := false
	for i := 0; i < len(attrs); i += 2 {
		if attrs[i] == "fetched" && attrs[i+1] == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("fetched count missing from attrs: %v", attrs)
	}
}

func TestNullReporter(t *testing.T) {
	var r Reporter = NullReporter{}
	// Must not panic.
	r.Record(domain.OutcomeFetched)
}
