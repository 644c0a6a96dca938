package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logger emits one structured line per request with method, URI, remote
// address, and elapsed time.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request",
				"method", r.Method,
				"uri", r.URL.RequestURI(),
				"addr", r.RemoteAddr,
				"duration", time.Since(started),
			)
		})
	}
}
