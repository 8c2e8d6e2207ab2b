package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// HTTP returns middleware that logs an http_request event for each request,
// tagged with the X-Request-ID header when one is set.
func HTTP(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r)
			fields := map[string]string{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": strconv.Itoa(sw.status),
				"ms":     strconv.FormatInt(time.Since(start).Milliseconds(), 10),
			}
			if id := r.Header.Get("X-Request-ID"); id != "" {
				fields["request_id"] = id
			}
			Event(l, "http_request", fields)
		})
	}
}
