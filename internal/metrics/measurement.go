package metrics

import (
	"strings"
	"time"
)

// Kind identifies the operation a measurement belongs to.
type Kind int

const (
	KindGet Kind = iota
	KindPost
)

// Kinds lists every operation kind in report order.
var Kinds = []Kind{KindGet, KindPost}

func (k Kind) String() string {
	switch k {
	case KindGet:
		return "GET"
	case KindPost:
		return "POST"
	default:
		return "UNKNOWN"
	}
}

// ParseKind maps "get"/"post" (any case) to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GET":
		return KindGet, true
	case "POST":
		return KindPost, true
	default:
		return 0, false
	}
}

// Measurement is one completed call or the shutdown sentinel.
// Values are immutable once created.
type Measurement struct {
	kind     Kind
	latency  time.Duration
	err      error
	counted  bool
	shutdown bool
}

// NewSample records the outcome of a single call. A nil err means success.
// Warm-up callers pass counted=false so the aggregator drops the sample.
func NewSample(kind Kind, latency time.Duration, err error, counted bool) Measurement {
	if latency < 0 {
		latency = 0
	}
	return Measurement{kind: kind, latency: latency, err: err, counted: counted}
}

// Shutdown returns the sentinel that tells the aggregator to stop.
func Shutdown() Measurement {
	return Measurement{shutdown: true}
}

func (m Measurement) IsShutdown() bool       { return m.shutdown }
func (m Measurement) Kind() Kind             { return m.kind }
func (m Measurement) Latency() time.Duration { return m.latency }
func (m Measurement) Err() error             { return m.err }
func (m Measurement) Counted() bool          { return m.counted }
func (m Measurement) Success() bool          { return !m.shutdown && m.err == nil }

// Millis returns the latency in fractional milliseconds.
func (m Measurement) Millis() float64 {
	return float64(m.latency) / float64(time.Millisecond)
}
