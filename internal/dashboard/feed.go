package dashboard

import (
	"math"
	"sync"

	"github.com/torosent/waveload/internal/metrics"
)

// KindTally is the running accounting for one call kind. Latency figures
// cover successful timed calls only.
type KindTally struct {
	Successes int64
	Failures  int64
	SumMs     float64
	MinMs     float64
	MaxMs     float64
}

func (k KindTally) Calls() int64 {
	return k.Successes + k.Failures
}

// MeanMs is NaN until a timed call of this kind has succeeded.
func (k KindTally) MeanMs() float64 {
	if k.Successes == 0 {
		return math.NaN()
	}
	return k.SumMs / float64(k.Successes)
}

func (k *KindTally) add(m metrics.Measurement) {
	if !m.Success() {
		k.Failures++
		return
	}
	ms := m.Millis()
	if k.Successes == 0 || ms < k.MinMs {
		k.MinMs = ms
	}
	if k.Successes == 0 || ms > k.MaxMs {
		k.MaxMs = ms
	}
	k.Successes++
	k.SumMs += ms
}

// Snapshot is a copy of the feed taken under its lock.
type Snapshot struct {
	Warmup   int64
	Get      KindTally
	Post     KindTally
	Failures []metrics.FailureBucket
}

// Calls counts timed calls of both kinds.
func (s Snapshot) Calls() int64 {
	return s.Get.Calls() + s.Post.Calls()
}

// Feed is a metrics.Observer that keeps the tallies the dashboard draws.
// The aggregator calls Observe; the render loop calls Snapshot.
type Feed struct {
	mu       sync.Mutex
	warmup   int64
	get      KindTally
	post     KindTally
	failures map[metrics.Kind]map[string]int
}

func NewFeed() *Feed {
	return &Feed{failures: map[metrics.Kind]map[string]int{}}
}

func (f *Feed) Observe(m metrics.Measurement) {
	if m.IsShutdown() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if !m.Counted() {
		f.warmup++
		return
	}
	tally := &f.get
	if m.Kind() == metrics.KindPost {
		tally = &f.post
	}
	tally.add(m)
	if err := m.Err(); err != nil {
		codes := f.failures[m.Kind()]
		if codes == nil {
			codes = map[string]int{}
			f.failures[m.Kind()] = codes
		}
		codes[metrics.FailureCode(err)]++
	}
}

func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Warmup:   f.warmup,
		Get:      f.get,
		Post:     f.post,
		Failures: metrics.FlattenFailureBuckets(f.failures),
	}
}
