package metrics

import (
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	digestLowestMicros  = 1
	digestHighestMicros = int64(time.Hour / time.Microsecond)
	digestSigFigs       = 3
)

// Digest is a streaming latency quantile estimator with memory independent
// of the number of samples. Relative error is bounded by the histogram's
// significant figures (0.1%).
type Digest struct {
	hist  *hdrhistogram.Histogram
	count int64
	min   float64
	max   float64
}

func NewDigest() *Digest {
	// Track latencies from 1µs up to 1h with 3 significant figures.
	return &Digest{
		hist: hdrhistogram.New(digestLowestMicros, digestHighestMicros, digestSigFigs),
		min:  math.Inf(1),
		max:  math.Inf(-1),
	}
}

// Add inserts one latency, in milliseconds.
func (d *Digest) Add(ms float64) {
	if math.IsNaN(ms) || ms < 0 {
		return
	}
	us := int64(math.Round(ms * 1000))
	if us < d.hist.LowestTrackableValue() {
		us = d.hist.LowestTrackableValue()
	}
	if us > d.hist.HighestTrackableValue() {
		us = d.hist.HighestTrackableValue()
	}
	_ = d.hist.RecordValue(us)

	d.count++
	if ms < d.min {
		d.min = ms
	}
	if ms > d.max {
		d.max = ms
	}
}

// Count returns the number of values added (including merged ones).
func (d *Digest) Count() int64 {
	return d.count
}

// Quantile returns the approximate value at q (0..1) in milliseconds, or NaN
// if the digest is empty. Results never leave the observed [min, max].
func (d *Digest) Quantile(q float64) float64 {
	if d.count == 0 || math.IsNaN(q) {
		return math.NaN()
	}
	if q <= 0 {
		return d.min
	}
	if q >= 1 {
		return d.max
	}
	v := float64(d.hist.ValueAtQuantile(q*100)) / 1000
	return math.Min(math.Max(v, d.min), d.max)
}

// Merge folds other into d. other is left untouched.
func (d *Digest) Merge(other *Digest) {
	if other == nil || other.count == 0 {
		return
	}
	d.hist.Merge(other.hist)
	d.count += other.count
	d.min = math.Min(d.min, other.min)
	d.max = math.Max(d.max, other.max)
}
