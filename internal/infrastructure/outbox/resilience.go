// Package outbox delivers the side effects staged by doctorate commands
// once their transaction has committed.
package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"

	dterrors "github.com/doctrack/doctrack/internal/errors"
)

// ResilienceConfig configures how collaborator calls are retried.
type ResilienceConfig struct {
	// RatePerMinute caps deliveries per minute (0 = unlimited).
	RatePerMinute int

	RetryAttempts    int
	RetryInitialWait time.Duration
	RetryMaxWait     time.Duration

	CircuitBreakerEnabled     bool
	CircuitBreakerThreshold   int           // consecutive failures before opening
	CircuitBreakerTimeout     time.Duration // how long to stay open
	CircuitBreakerMaxRequests int           // requests allowed in half-open
}

// DefaultResilienceConfig returns the settings used when none are configured.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		RetryAttempts:             3,
		RetryInitialWait:          200 * time.Millisecond,
		RetryMaxWait:              5 * time.Second,
		CircuitBreakerEnabled:     true,
		CircuitBreakerThreshold:   5,
		CircuitBreakerTimeout:     30 * time.Second,
		CircuitBreakerMaxRequests: 1,
	}
}

// Resilience wraps a delivery in rate limiting, a circuit breaker and
// retries, in that order.
type Resilience struct {
	rateLimiter    ratelimit.RateLimiter
	retrier        retry.Retry[struct{}]
	circuitBreaker circuitbreaker.CircuitBreaker[struct{}]
}

// NewResilience builds the wrapper described by cfg.
func NewResilience(cfg ResilienceConfig) *Resilience {
	r := &Resilience{}

	if cfg.RatePerMinute > 0 {
		r.rateLimiter = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RatePerMinute,
			Burst:    cfg.RatePerMinute,
			Interval: time.Minute,
		})
	}

	if cfg.RetryAttempts > 0 {
		r.retrier = retry.New[struct{}](retry.Config{
			MaxAttempts:   cfg.RetryAttempts,
			InitialDelay:  cfg.RetryInitialWait,
			MaxDelay:      cfg.RetryMaxWait,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
			Jitter:        true,
			IsRetryable:   IsRetryable,
		})
	}

	if cfg.CircuitBreakerEnabled {
		threshold := cfg.CircuitBreakerThreshold
		if threshold <= 0 {
			threshold = 1
		}
		r.circuitBreaker = circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: uint32(cfg.CircuitBreakerMaxRequests), // #nosec G115 -- bounded config value
			Interval:    cfg.CircuitBreakerTimeout,
			Timeout:     cfg.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounded config value
			},
		})
	}

	return r
}

// Execute runs op and returns how many times it was attempted.
func (r *Resilience) Execute(ctx context.Context, op func(context.Context) error) (int, error) {
	attempts := 0
	counted := func(ctx context.Context) (struct{}, error) {
		attempts++
		return struct{}{}, op(ctx)
	}

	if r == nil {
		_, err := counted(ctx)
		return attempts, err
	}

	if r.rateLimiter != nil {
		if err := r.rateLimiter.Wait(ctx, "outbox-delivery"); err != nil {
			return attempts, err
		}
	}

	var err error
	if r.circuitBreaker != nil {
		_, err = r.circuitBreaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
			return r.executeWithRetry(ctx, counted)
		})
	} else {
		_, err = r.executeWithRetry(ctx, counted)
	}
	return attempts, err
}

func (r *Resilience) executeWithRetry(ctx context.Context, op func(context.Context) (struct{}, error)) (struct{}, error) {
	if r.retrier != nil {
		return r.retrier.Do(ctx, op)
	}
	return op(ctx)
}

// CircuitBreakerState returns "closed", "half-open", "open" or "disabled".
func (r *Resilience) CircuitBreakerState() string {
	if r == nil || r.circuitBreaker == nil {
		return "disabled"
	}
	return r.circuitBreaker.State().String()
}

// Close releases the rate limiter.
func (r *Resilience) Close() error {
	if r == nil || r.rateLimiter == nil {
		return nil
	}
	return r.rateLimiter.Close()
}

// IsRetryable reports whether a delivery error may succeed on a later
// attempt. Malformed payloads, unknown persons and missing templates never
// will.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch dterrors.GetKind(err) {
	case dterrors.KindValidation, dterrors.KindNotFound, dterrors.KindPermission, dterrors.KindConfig:
		return false
	default:
		return true
	}
}
