package httpapi

import (
	"net/http"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

// NewRouter builds the read-only ops API.
func NewRouter(handler *Handler, logger *logging.Logger) http.Handler {
	logger = logging.OrDefault(logger).Named("httpapi")

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerOpsRoutes(mux, handler)

	return RequestTracing(RequestLogging(logger, recoverPanic(logger, mux)))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
