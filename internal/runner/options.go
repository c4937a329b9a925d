package runner

import (
	"time"

	"github.com/torosent/waveload/internal/metrics"
)

const (
	DefaultWarmupWorkers    = 10
	DefaultWarmupIterations = 100
	DefaultIterations       = 1000
)

// Options configure the Runner.
type Options struct {
	Target    string        // address handed to the issuer on every call
	GroupSize int           // callers per timed wave
	Groups    int           // number of timed waves
	Delay     time.Duration // pause between launching consecutive waves
	Issuer    Issuer        // call implementation (required)

	Iterations       int // GET+POST pairs per timed caller (0 means DefaultIterations)
	WarmupWorkers    int // callers in the warm-up wave; the zero value disables warm-up, use DefaultOptions for the standard wave
	WarmupIterations int // GET+POST pairs per warm-up caller (0 means DefaultWarmupIterations)

	Observers []metrics.Observer // live views notified by the aggregator
}

// DefaultOptions returns Options with the standard warm-up and iteration counts.
func DefaultOptions() Options {
	return Options{
		GroupSize:        1,
		Groups:           1,
		Iterations:       DefaultIterations,
		WarmupWorkers:    DefaultWarmupWorkers,
		WarmupIterations: DefaultWarmupIterations,
	}
}

// Geometry returns the timed-wave shape used for call accounting.
func (o Options) Geometry() metrics.Geometry {
	return metrics.Geometry{
		GroupSize:  o.GroupSize,
		Groups:     o.Groups,
		Iterations: o.Iterations,
	}
}

func (o *Options) normalize() {
	if o.GroupSize < 0 {
		o.GroupSize = 0
	}
	if o.Groups < 0 {
		o.Groups = 0
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.WarmupWorkers < 0 {
		o.WarmupWorkers = 0
	}
	if o.WarmupIterations <= 0 {
		o.WarmupIterations = DefaultWarmupIterations
	}
}
