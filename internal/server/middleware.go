package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"workshopmods/internal/httpx"
)

// requestIDMiddleware tags each request with an ID and attaches a logger
// carrying it to the request context.
func requestIDMiddleware(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := httpx.RequestID(r)
			r.Header.Set("X-Request-ID", id)
			w.Header().Set("X-Request-ID", id)
			rl := l.With().Str("request_id", id).Logger()
			next.ServeHTTP(w, r.WithContext(rl.WithContext(r.Context())))
		})
	}
}

// WithShutdown answers 503 once flag reports true.
func WithShutdown(next http.Handler, flag interface{ Load() bool }) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if flag.Load() {
			httpx.Write(w, r, httpx.Unavailable("server shutting down"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
