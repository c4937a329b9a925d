package metrics

import "sync/atomic"

// Progress is an Observer that keeps lock-free running counters for live
// displays while the aggregator owns the real statistics.
type Progress struct {
	calls     atomic.Int64
	successes atomic.Int64
	warmup    atomic.Int64
}

// ProgressSnapshot is a point-in-time copy of Progress counters.
type ProgressSnapshot struct {
	Calls     int64
	Successes int64
	Failures  int64
	Warmup    int64
}

func (p *Progress) Observe(m Measurement) {
	if !m.Counted() {
		p.warmup.Add(1)
		return
	}
	p.calls.Add(1)
	if m.Success() {
		p.successes.Add(1)
	}
}

func (p *Progress) Snapshot() ProgressSnapshot {
	calls := p.calls.Load()
	successes := p.successes.Load()
	return ProgressSnapshot{
		Calls:     calls,
		Successes: successes,
		Failures:  calls - successes,
		Warmup:    p.warmup.Load(),
	}
}
