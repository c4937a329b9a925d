// Package runner drives a staggered-wave load test.
//
// A run has two phases:
//   - a warm-up wave whose callers prime connections and caches; their
//     samples are tagged as not counted and never reach the statistics
//   - Groups timed waves of GroupSize callers each, launched Delay apart.
//     Waves overlap: launching the next wave waits only for the delay.
//
// Every [Caller] issues Iterations GET+POST pairs through an [Issuer] and
// pushes one measurement per call onto the shared queue drained by the
// aggregator (see package metrics).
//
// # Basic Usage
//
//	opts := runner.DefaultOptions()
//	opts.Target = "http://localhost:8080"
//	opts.GroupSize = 32
//	opts.Groups = 4
//	opts.Delay = 2 * time.Second
//	opts.Issuer = issuer
//	result, err := runner.New(opts).Run(ctx)
//
// DefaultOptions carries the standard warm-up wave. A zero WarmupWorkers
// disables warm-up.
//
// # Cancellation
//
// Cancelling ctx while the runner waits on callers, sleeps between waves or
// waits for the aggregator aborts the run. Run then returns an error wrapping
// [ErrInterrupted] and no statistics.
//
// # Middleware
//
// Issuers can be wrapped:
//   - [WithLogging]: report failed calls to a [FailureLogger]
//   - [WithRateLimit]: pace calls through a shared token bucket
//
// Failed calls are never retried.
package runner
