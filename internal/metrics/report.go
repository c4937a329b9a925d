package metrics

import (
	"math"
	"time"
)

// Geometry describes the timed waves of a run. Warm-up is never part of it.
type Geometry struct {
	GroupSize  int
	Groups     int
	Iterations int
}

// CallSize is the number of calls the timed waves issue: one GET and one
// POST per iteration.
func (g Geometry) CallSize() int64 {
	return int64(g.Groups) * int64(g.GroupSize) * int64(g.Iterations) * 2
}

// Timing brackets the timed waves of a run.
type Timing struct {
	Start time.Time
	End   time.Time
}

func (t Timing) WallTime() time.Duration {
	if t.End.Before(t.Start) {
		return 0
	}
	return t.End.Sub(t.Start)
}

// LatencySummary holds call accounting and latency figures for one kind.
// Latency fields are milliseconds and NaN when there were no successes.
type LatencySummary struct {
	Kind      Kind
	Calls     int64
	Successes int64
	Failures  int64
	Min       float64
	Mean      float64
	Median    float64
	P99       float64
	Max       float64
}

// HasData reports whether any successful call contributed latency figures.
func (l LatencySummary) HasData() bool {
	return l.Successes > 0
}

// Report is the derived, read-only result of a run.
type Report struct {
	RunID  string
	Target string

	Groups     int
	GroupSize  int
	Iterations int

	Calls     int64
	Successes int64
	Failures  int64

	WallTime    time.Duration
	WallSeconds float64
	Throughput  float64 // successful calls per second; NaN for a zero wall time

	Get  LatencySummary
	Post LatencySummary

	FailureBuckets []FailureBucket
}

// NewReport derives the run report. It does not modify stats.
func NewReport(g Geometry, t Timing, stats *Statistics) Report {
	if stats == nil {
		stats = NewStatistics()
	}
	callSize := g.CallSize()
	wall := t.WallTime()

	r := Report{
		Groups:         g.Groups,
		GroupSize:      g.GroupSize,
		Iterations:     g.Iterations,
		Calls:          callSize,
		Successes:      stats.Get.Successes + stats.Post.Successes,
		WallTime:       wall,
		WallSeconds:    wall.Seconds(),
		Throughput:     math.NaN(),
		Get:            summarize(KindGet, callSize/2, stats.Get),
		Post:           summarize(KindPost, callSize/2, stats.Post),
		FailureBuckets: FlattenFailureBuckets(stats.Failures),
	}
	r.Failures = callSize - r.Successes
	if r.WallSeconds > 0 {
		r.Throughput = float64(r.Successes) / r.WallSeconds
	}
	return r
}

// Summary returns the latency summary for kind.
func (r Report) Summary(kind Kind) LatencySummary {
	if kind == KindPost {
		return r.Post
	}
	return r.Get
}

func summarize(kind Kind, calls int64, ks KindStats) LatencySummary {
	s := LatencySummary{
		Kind:      kind,
		Calls:     calls,
		Successes: ks.Successes,
		Failures:  calls - ks.Successes,
		Min:       math.NaN(),
		Mean:      math.NaN(),
		Median:    math.NaN(),
		P99:       math.NaN(),
		Max:       math.NaN(),
	}
	if ks.Successes == 0 {
		return s
	}
	s.Min = ks.Min
	s.Max = ks.Max
	s.Mean = ks.Mean()
	if ks.Digest != nil {
		s.Median = ks.Digest.Quantile(0.5)
		s.P99 = ks.Digest.Quantile(0.99)
	}
	return s
}
