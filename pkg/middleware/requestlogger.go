package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ClientReviews/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// whatever correlation, session and trace identifiers are already present.
// Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
