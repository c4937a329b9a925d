// Package metrics holds the measurement pipeline for a waveload run.
//
// Callers push one [Measurement] per completed call onto a shared [Queue].
// A single [Aggregator] drains the queue and folds counted samples into
// [Statistics], keeping GET and POST populations apart:
//
//	queue := metrics.NewQueue()
//	agg := metrics.NewAggregator(queue)
//	go func() {
//		stats, err := agg.Consume(ctx)
//		...
//	}()
//	queue.Push(metrics.NewSample(metrics.KindGet, 12*time.Millisecond, nil, true))
//	queue.Push(metrics.Shutdown())
//
// # Ownership
//
// Statistics are written only by the aggregator goroutine. Consume returns
// them once the [Shutdown] sentinel has been seen, so readers never race with
// the writer. Live views (progress lines, Prometheus) subscribe through the
// [Observer] interface and keep their own synchronized state.
//
// # Quantiles
//
// Latency quantiles come from a [Digest], a bounded-memory HdrHistogram
// wrapper. Its answers are clamped to the exact observed min and max.
//
// # Reports
//
// [NewReport] derives call accounting, throughput and per-kind latency
// summaries from the final statistics, the run geometry and its timing.
// Values with no contributing samples are NaN and render as "no data".
package metrics
