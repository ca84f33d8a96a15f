package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. Requests under skip prefixes
// pass through untouched.
func Middleware(skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skip {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			HTTPRequestsInFlight.Inc()
			defer HTTPRequestsInFlight.Dec()

			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(wrapped, r)

			path := routeLabel(r.URL.Path)
			HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// routeLabel collapses per-job paths so labels stay bounded.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/stream/") && strings.HasSuffix(path, ".m3u8"):
		return "/stream/{job}/playlist"
	case strings.HasPrefix(path, "/stream/") && strings.HasSuffix(path, ".ts"):
		return "/stream/{job}/segment"
	case strings.HasPrefix(path, "/stream/"):
		return "/stream/{path}"
	case strings.HasPrefix(path, "/jobs/"):
		return "/jobs/{id}"
	default:
		return path
	}
}
