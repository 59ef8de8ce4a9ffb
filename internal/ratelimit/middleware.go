package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config drives the admission middleware: which windows to enforce and
// which request paths bypass it entirely (health checks).
type Config struct {
	Enabled       bool
	PerMinute     int
	PerHour       int
	Strategy      Strategy
	ExemptPrefixes []string
}

// Middleware builds a chi-compatible handler wrapper that checks both
// the per-minute and per-hour windows before admitting a request,
// shaped after the teacher's middleware.go wrappers (logger injected,
// returns a func(http.Handler) http.Handler).
func Middleware(limiter *Limiter, cfg Config, logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || isExempt(r.URL.Path, cfg.ExemptPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			identifier := identify(r)

			minuteResult, err := limiter.Check(r.Context(), identifier, cfg.PerMinute, time.Minute, cfg.Strategy)
			if err != nil {
				// Fail open: an internal rate-limiter error must never
				// block legitimate submissions.
				logger.WithError(err).Warn("rate limiter check failed, admitting request")
				next.ServeHTTP(w, r)
				return
			}

			hourResult, err := limiter.Check(r.Context(), identifier, cfg.PerHour, time.Hour, cfg.Strategy)
			if err != nil {
				logger.WithError(err).Warn("rate limiter check failed, admitting request")
				next.ServeHTTP(w, r)
				return
			}

			binding := minuteResult
			if !hourResult.Allowed {
				binding = hourResult
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(binding.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(binding.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(binding.Reset, 10))

			if !minuteResult.Allowed || !hourResult.Allowed {
				body := map[string]interface{}{
					"error":     "rate_limit_exceeded",
					"message":   "rate limit exceeded",
					"limit":     binding.Limit,
					"remaining": binding.Remaining,
					"reset":     binding.Reset,
				}
				if binding.RetryAfter != nil {
					w.Header().Set("Retry-After", strconv.FormatInt(*binding.RetryAfter, 10))
					body["retry_after"] = *binding.RetryAfter
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(body)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isExempt reports whether path bypasses rate limiting. "/" exempts only
// the root path itself; every other entry is matched as a prefix.
func isExempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || (p != "/" && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// identify picks the rate-limit identity: authenticated user id (not
// applicable, the judge has no auth layer) falls through to
// X-Forwarded-For, then the peer address, then "unknown".
func identify(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
