package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// RateLimiterConfig configures request throttling.
type RateLimiterConfig struct {
	// Rate is the number of requests allowed per interval.
	Rate int
	// Burst is the maximum number of requests allowed in a burst.
	Burst int
	// Interval is the time window for rate limiting.
	Interval time.Duration
}

// PerMinute returns a config allowing n requests per minute with a burst of
// a tenth of that, at least one.
func PerMinute(n int) RateLimiterConfig {
	burst := n / 10
	if burst < 1 {
		burst = 1
	}
	return RateLimiterConfig{Rate: n, Burst: burst, Interval: time.Minute}
}

// NewRateLimiter builds the token buckets behind RateLimit. The caller owns
// the limiter and must Close it.
func NewRateLimiter(cfg RateLimiterConfig) ratelimit.RateLimiter {
	return ratelimit.New(&ratelimit.Config{
		Rate:     cfg.Rate,
		Burst:    cfg.Burst,
		Interval: cfg.Interval,
	})
}

// RateLimit rejects requests over the limit with 429. Buckets are keyed by
// person id when the identity header is present, by client address
// otherwise. RealIP must run before this.
func RateLimit(rl ratelimit.RateLimiter, interval time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(interval.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(r.Context(), rateKey(r)) {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(r *http.Request) string {
	if id := r.Header.Get(HeaderPersonID); id != "" {
		return "person:" + id
	}
	return "addr:" + r.RemoteAddr
}
