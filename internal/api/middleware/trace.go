package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/leadwire-api/internal/api/shared"
	"github.com/phrazzld/leadwire-api/internal/platform/logger"
)

// NewTraceMiddleware adds a trace ID to the request context along with a
// logger that tags every line with it. Apply it early in the chain so
// later handlers and services log with the trace ID.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			log := base.With(slog.String("trace_id", shared.GetTraceID(ctx)))

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(logger.WithLogger(ctx, log)))
		})
	}
}
