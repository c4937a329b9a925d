package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/torosent/waveload/internal/metrics"
)

// Result captures the timing and final statistics of a completed run.
type Result struct {
	Geometry metrics.Geometry
	Timing   metrics.Timing
	Stats    *metrics.Statistics
}

// Runner coordinates the warm-up wave, the staggered timed waves and the
// aggregator.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

type aggregateResult struct {
	stats *metrics.Statistics
	err   error
}

// Run executes the whole protocol. Any cancellation while waiting aborts the
// run with an error wrapping ErrInterrupted; no partial result is returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.opt.Issuer == nil {
		return Result{}, errors.New("runner: issuer is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := metrics.NewQueue()
	agg := metrics.NewAggregator(queue, r.opt.Observers...)
	aggDone := make(chan aggregateResult, 1)
	go func() {
		stats, err := agg.Consume(ctx)
		aggDone <- aggregateResult{stats: stats, err: err}
	}()

	if err := r.warmup(ctx, queue); err != nil {
		return Result{}, err
	}

	start := time.Now()
	if err := r.timedWaves(ctx, queue); err != nil {
		return Result{}, err
	}
	end := time.Now()

	// Every caller has returned, so the sentinel is the last item queued.
	queue.Push(metrics.Shutdown())

	var res aggregateResult
	select {
	case res = <-aggDone:
	case <-ctx.Done():
		return Result{}, interrupted("aggregation", ctx.Err())
	}
	if res.err != nil {
		return Result{}, interrupted("aggregation", res.err)
	}

	return Result{
		Geometry: r.opt.Geometry(),
		Timing:   metrics.Timing{Start: start, End: end},
		Stats:    res.stats,
	}, nil
}

func (r *Runner) warmup(ctx context.Context, sink Sink) error {
	if r.opt.WarmupWorkers == 0 {
		return nil
	}
	var wg sync.WaitGroup
	r.launch(ctx, &wg, sink, r.opt.WarmupWorkers, r.opt.WarmupIterations, false)
	if err := wait(ctx, &wg); err != nil {
		return interrupted("warm-up", err)
	}
	return nil
}

func (r *Runner) timedWaves(ctx context.Context, sink Sink) error {
	var wg sync.WaitGroup
	for wave := 0; wave < r.opt.Groups; wave++ {
		r.launch(ctx, &wg, sink, r.opt.GroupSize, r.opt.Iterations, true)
		if wave == r.opt.Groups-1 {
			break
		}
		if err := sleep(ctx, r.opt.Delay); err != nil {
			return interrupted("wave delay", err)
		}
	}
	if err := wait(ctx, &wg); err != nil {
		return interrupted("timed waves", err)
	}
	return nil
}

func (r *Runner) launch(ctx context.Context, wg *sync.WaitGroup, sink Sink, workers, iterations int, counted bool) {
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		c := NewCaller(r.opt.Issuer, r.opt.Target, iterations, counted, sink)
		go func() {
			defer wg.Done()
			c.Run(ctx)
		}()
	}
}

// wait blocks until wg is done or ctx is cancelled.
func wait(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
