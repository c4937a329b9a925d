package metrics

import (
	"context"
	"math"
)

// KindStats are the running latency statistics for one operation kind.
// Every field covers exactly the same set of successful samples.
type KindStats struct {
	Successes  int64
	LatencySum float64 // milliseconds
	Min        float64 // +Inf until the first success
	Max        float64 // -Inf until the first success
	Digest     *Digest
}

func newKindStats() KindStats {
	return KindStats{
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
		Digest: NewDigest(),
	}
}

func (k *KindStats) add(ms float64) {
	k.Successes++
	k.LatencySum += ms
	if ms < k.Min {
		k.Min = ms
	}
	if ms > k.Max {
		k.Max = ms
	}
	k.Digest.Add(ms)
}

// Mean returns the average successful latency in milliseconds, or NaN.
func (k KindStats) Mean() float64 {
	if k.Successes == 0 {
		return math.NaN()
	}
	return k.LatencySum / float64(k.Successes)
}

// Statistics is the aggregator's final state for a run.
type Statistics struct {
	Get  KindStats
	Post KindStats

	// Failures counts counted failed calls by kind and FailureCode.
	Failures map[Kind]map[string]int
	// Discarded counts warm-up samples that were dropped.
	Discarded int64
}

func NewStatistics() *Statistics {
	return &Statistics{
		Get:      newKindStats(),
		Post:     newKindStats(),
		Failures: make(map[Kind]map[string]int),
	}
}

// For returns the statistics for kind.
func (s *Statistics) For(kind Kind) *KindStats {
	if kind == KindPost {
		return &s.Post
	}
	return &s.Get
}

// Observer is notified of every sample after the aggregator has folded it.
// Implementations are called from the aggregator goroutine and must not block.
type Observer interface {
	Observe(m Measurement)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(m Measurement)

func (f ObserverFunc) Observe(m Measurement) { f(m) }

// Aggregator is the single consumer of a Queue and the sole writer of its
// Statistics.
type Aggregator struct {
	queue     *Queue
	observers []Observer
	stats     *Statistics
}

func NewAggregator(queue *Queue, observers ...Observer) *Aggregator {
	return &Aggregator{
		queue:     queue,
		observers: observers,
		stats:     NewStatistics(),
	}
}

// Consume drains the queue until the Shutdown sentinel and returns the final
// statistics. Everything pushed before the sentinel is folded first.
// A cancelled ctx aborts the loop and no statistics are returned.
func (a *Aggregator) Consume(ctx context.Context) (*Statistics, error) {
	for {
		m, err := a.queue.Pop(ctx)
		if err != nil {
			return nil, err
		}
		if m.IsShutdown() {
			return a.stats, nil
		}
		a.fold(m)
		for _, o := range a.observers {
			o.Observe(m)
		}
	}
}

func (a *Aggregator) fold(m Measurement) {
	if !m.Counted() {
		a.stats.Discarded++
		return
	}
	if !m.Success() {
		codes := a.stats.Failures[m.Kind()]
		if codes == nil {
			codes = make(map[string]int)
			a.stats.Failures[m.Kind()] = codes
		}
		codes[FailureCode(m.Err())]++
		return
	}
	a.stats.For(m.Kind()).add(m.Millis())
}
