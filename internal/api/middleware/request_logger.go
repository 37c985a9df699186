package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"lendflow/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestLoggerMiddleware tags each request with an ID and logs it on
// completion with the status and elapsed time.
func RequestLoggerMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			startTime := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			fields := map[string]interface{}{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rw.statusCode,
				"duration":   time.Since(startTime).String(),
			}

			if rw.statusCode >= 500 {
				log.ErrorContext(r.Context(), "İstek tamamlandı", fields)
			} else {
				log.InfoContext(r.Context(), "İstek tamamlandı", fields)
			}
		})
	}
}
