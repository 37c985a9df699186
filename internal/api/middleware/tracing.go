package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"lendflow/pkg/tracing"
)

// TracingMiddleware opens a span per request, named by method and
// normalized route so that all lookups of one book share a span name.
// The trace ID is echoed back so clients can reference it in reports.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := normalizeEndpoint(r.URL.Path)

		ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+route)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.target", r.URL.Path),
			attribute.String("http.remote_addr", r.RemoteAddr),
		)

		if traceID := tracing.GetTraceID(ctx); traceID != "" {
			w.Header().Set("X-Trace-ID", traceID)
		}

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))
		if rw.statusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
		}
	})
}
