package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/waveload/internal/metrics"
)

// Issuer performs single calls against a target and reports their latency.
// A nil error means the call succeeded.
type Issuer interface {
	Get(ctx context.Context, target string) (time.Duration, error)
	Post(ctx context.Context, target string) (time.Duration, error)
}

// FailureLogger logs failed calls.
type FailureLogger interface {
	LogFailure(kind metrics.Kind, err error)
}

// loggingIssuer wraps an Issuer with failure logging.
type loggingIssuer struct {
	inner  Issuer
	logger FailureLogger
}

// WithLogging wraps an Issuer to log failures.
func WithLogging(issuer Issuer, logger FailureLogger) Issuer {
	if logger == nil {
		return issuer
	}
	return &loggingIssuer{inner: issuer, logger: logger}
}

func (l *loggingIssuer) Get(ctx context.Context, target string) (time.Duration, error) {
	latency, err := l.inner.Get(ctx, target)
	if err != nil {
		l.logger.LogFailure(metrics.KindGet, err)
	}
	return latency, err
}

func (l *loggingIssuer) Post(ctx context.Context, target string) (time.Duration, error) {
	latency, err := l.inner.Post(ctx, target)
	if err != nil {
		l.logger.LogFailure(metrics.KindPost, err)
	}
	return latency, err
}

// rateLimitedIssuer waits for a token before every call. Time spent waiting
// is not part of the reported latency.
type rateLimitedIssuer struct {
	inner   Issuer
	limiter *rate.Limiter
}

// WithRateLimit paces calls across all callers sharing the returned Issuer.
// A nil limiter returns issuer unchanged.
func WithRateLimit(issuer Issuer, limiter *rate.Limiter) Issuer {
	if limiter == nil {
		return issuer
	}
	return &rateLimitedIssuer{inner: issuer, limiter: limiter}
}

// NewLimiter builds a limiter for rps calls per second; rps <= 0 means no limit.
func NewLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	// Burst equal to rps to smooth pacing under concurrency.
	return rate.NewLimiter(rate.Limit(rps), rps)
}

func (r *rateLimitedIssuer) Get(ctx context.Context, target string) (time.Duration, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return r.inner.Get(ctx, target)
}

func (r *rateLimitedIssuer) Post(ctx context.Context, target string) (time.Duration, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return r.inner.Post(ctx, target)
}
