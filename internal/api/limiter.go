package api

import (
	"net"
	"net/http"
	"time"

	"hallbook/internal/domain"
	"hallbook/internal/metrics"

	"github.com/rs/zerolog"
)

// rateLimitMiddleware rejects clients that exceed the configured request
// budget. Keyed by client IP; a store error fails open so a broken redis
// never takes the API down.
func rateLimitMiddleware(store domain.RateLimitStore, limit int, window time.Duration, logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if store == nil || limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ok, err := store.Allow(r.Context(), clientIP(r), limit, window)
		if err != nil {
			logger.Error().Err(err).Msg("rate limit store error")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			metrics.IncRateLimited()
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
