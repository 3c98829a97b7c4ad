// Package retry guards outbound provider calls: it paces them to a
// minimum inter-call interval, caps how many run at once, and retries
// transient failures with capped exponential backoff before surfacing the
// error to the caller. Permanent failures are never retried.
package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// transientError marks a failure as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so the runner will retry it. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked Transient or is a network
// timeout. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// StatusRetryable reports whether an HTTP status signals a transient
// provider condition: rate limiting or a server-side failure.
func StatusRetryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

type Config struct {
	// MaxRetries bounds retries after the first attempt. Default 3.
	MaxRetries int
	// BaseDelay and MaxDelay shape the exponential backoff.
	// Defaults 500ms and 30s.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// MinInterval spaces successive calls to respect the provider's
	// documented limit. Zero disables pacing.
	MinInterval time.Duration
	// MaxConcurrent caps in-flight calls. Default 1.
	MaxConcurrent int

	Logger *zerolog.Logger
}

// Runner executes outbound calls under the configured policy.
type Runner struct {
	executor failsafe.Executor[any]
	limiter  *rate.Limiter
	sem      chan struct{}
	log      *zerolog.Logger
}

func New(cfg Config) *Runner {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	policy := retrypolicy.NewBuilder[any]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithJitterFactor(0.1).
		WithMaxRetries(cfg.MaxRetries).
		HandleIf(func(_ any, err error) bool {
			return IsTransient(err)
		}).
		Build()

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &Runner{
		executor: failsafe.With(policy),
		limiter:  rate.NewLimiter(limit, 1),
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		log:      cfg.Logger,
	}
}

// Do runs fn under pacing, the concurrency cap and the retry policy.
// The returned error is the last attempt's failure once retries are
// exhausted, or the permanent error immediately.
func (r *Runner) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-r.sem }()

	attempt := 0
	_, err := r.executor.WithContext(ctx).Get(func() (any, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		attempt++
		err := fn(ctx)
		if err != nil && r.log != nil {
			r.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).
				Bool("transient", IsTransient(err)).Msg("outbound call failed")
		}
		return nil, err
	})
	return err
}
