package runner

import (
	"context"
	"time"

	"github.com/torosent/waveload/internal/metrics"
)

// Sink receives measurements from callers. Push must be safe for concurrent
// use and must not block.
type Sink interface {
	Push(m metrics.Measurement)
}

// Caller issues a fixed number of GET+POST pairs and emits one measurement
// per call. Failed calls are reported, never retried.
type Caller struct {
	issuer     Issuer
	target     string
	iterations int
	counted    bool
	sink       Sink
}

// NewCaller creates a caller. counted=false marks warm-up traffic.
func NewCaller(issuer Issuer, target string, iterations int, counted bool, sink Sink) *Caller {
	return &Caller{
		issuer:     issuer,
		target:     target,
		iterations: iterations,
		counted:    counted,
		sink:       sink,
	}
}

// Run blocks until all iterations are done or ctx is cancelled.
func (c *Caller) Run(ctx context.Context) {
	for i := 0; i < c.iterations; i++ {
		if ctx.Err() != nil {
			return
		}
		c.call(ctx, metrics.KindGet)
		c.call(ctx, metrics.KindPost)
	}
}

func (c *Caller) call(ctx context.Context, kind metrics.Kind) {
	var (
		latency time.Duration
		err     error
	)
	switch kind {
	case metrics.KindPost:
		latency, err = c.issuer.Post(ctx, c.target)
	default:
		latency, err = c.issuer.Get(ctx, c.target)
	}
	c.sink.Push(metrics.NewSample(kind, latency, err, c.counted))
}
