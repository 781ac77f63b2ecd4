package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/josh-kwaku/swift-payments-portal/internal/handler"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
	"github.com/josh-kwaku/swift-payments-portal/internal/ratelimit"
)

// RateLimit counts requests per client address. When the limiter backend is
// unavailable the request is let through and the failure logged.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				logging.FromContext(r.Context()).Error("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			resetSeconds := strconv.Itoa(int(res.ResetAfter.Seconds() + 0.999))
			w.Header().Set("RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("RateLimit-Reset", resetSeconds)

			if !res.Allowed {
				w.Header().Set("Retry-After", resetSeconds)
				logging.FromContext(r.Context()).Warn("rate limit exceeded", "path", r.URL.Path)
				handler.RespondAppError(w, handler.ErrRateLimited, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
