package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vaweTech/authgate/internal/http/errors"
	"github.com/vaweTech/authgate/internal/metrics"
	"github.com/vaweTech/authgate/internal/observability/logger"
	"github.com/vaweTech/authgate/internal/rate"
)

// RateKeyFunc derives the bucket key for a request.
type RateKeyFunc func(r *http.Request) string

// IPPathRateKey buckets per client IP and route path, so one hot endpoint
// cannot exhaust the budget of the rest.
func IPPathRateKey(r *http.Request) string {
	return clientIP(r) + "|" + r.URL.Path
}

// RateLimitConfig wires a limiter backend into the middleware chain.
type RateLimitConfig struct {
	Limiter rate.Limiter
	Limit   int
	Window  time.Duration
	KeyFunc RateKeyFunc
	// Whitelist holds client IPs that bypass limiting entirely.
	Whitelist map[string]struct{}
}

// WithRateLimit enforces a fixed-window limit per key. Backend failures
// fail open: a broken limiter must not take the API down with it.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	keyFn := cfg.KeyFunc
	if keyFn == nil {
		keyFn = IPPathRateKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Limiter == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := cfg.Whitelist[clientIP(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := cfg.Limiter.Allow(r.Context(), keyFn(r), cfg.Limit, cfg.Window)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable, failing open", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

			if !res.Allowed {
				metrics.RateLimitedTotal.Inc()
				retry := res.RetryAfter
				if retry <= 0 {
					retry = cfg.Window
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds()+0.5)))
				errors.WriteError(w, errors.ErrRateLimitExceeded)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then the socket peer.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
