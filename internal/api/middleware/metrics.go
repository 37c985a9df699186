package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"lendflow/pkg/metrics"
)

// MetricsMiddleware records request counts and latency. Numeric path
// segments are collapsed to :id so that every user and book does not
// become its own metric series.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		metrics.RecordHttpRequest(
			r.Method,
			normalizeEndpoint(r.URL.Path),
			strconv.Itoa(rw.statusCode),
			time.Since(startTime),
		)
	})
}

func normalizeEndpoint(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if isNumeric(segment) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
