package extractor

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RunStats carries the counters for one batch run. It is created per run
// and passed explicitly, so concurrent batches stay independently
// measurable.
type RunStats struct {
	RunID     string    `json:"run_id"`
	Total     int       `json:"total"`
	StartedAt time.Time `json:"started_at"`

	succeeded  atomic.Int64
	failed     atomic.Int64
	scoreTotal atomic.Int64
	finishedAt atomic.Int64
}

func NewRunStats(total int) *RunStats {
	return &RunStats{
		RunID:     uuid.New().String(),
		Total:     total,
		StartedAt: time.Now(),
	}
}

func (s *RunStats) RecordSuccess(score int) {
	s.succeeded.Add(1)
	s.scoreTotal.Add(int64(score))
}

func (s *RunStats) RecordFailure() {
	s.failed.Add(1)
}

func (s *RunStats) Finish() {
	s.finishedAt.Store(time.Now().UnixNano())
}

func (s *RunStats) Succeeded() int { return int(s.succeeded.Load()) }
func (s *RunStats) Failed() int    { return int(s.failed.Load()) }

// AverageScore is the mean completeness score over successful results,
// or 0 for a run with no successes.
func (s *RunStats) AverageScore() int {
	n := s.succeeded.Load()
	if n == 0 {
		return 0
	}
	return int(s.scoreTotal.Load() / n)
}

func (s *RunStats) Duration() time.Duration {
	end := s.finishedAt.Load()
	if end == 0 {
		return time.Since(s.StartedAt)
	}
	return time.Duration(end - s.StartedAt.UnixNano())
}

// Totals aggregates extraction outcomes over the lifetime of an engine.
// Unlike RunStats it is cumulative across single, batch and queue-fed
// extractions, which is what the stats endpoint reports.
type Totals struct {
	extractions atomic.Int64
	succeeded   atomic.Int64
	failed      atomic.Int64
	scoreTotal  atomic.Int64
}

func (t *Totals) record(success bool, score int) {
	t.extractions.Add(1)
	if success {
		t.succeeded.Add(1)
		t.scoreTotal.Add(int64(score))
	} else {
		t.failed.Add(1)
	}
}

// TotalsSnapshot is a point-in-time copy safe to serialize.
type TotalsSnapshot struct {
	Extractions  int `json:"extractions"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	AverageScore int `json:"average_score"`
}

func (t *Totals) Snapshot() TotalsSnapshot {
	snap := TotalsSnapshot{
		Extractions: int(t.extractions.Load()),
		Succeeded:   int(t.succeeded.Load()),
		Failed:      int(t.failed.Load()),
	}
	if n := t.succeeded.Load(); n > 0 {
		snap.AverageScore = int(t.scoreTotal.Load() / n)
	}
	return snap
}
