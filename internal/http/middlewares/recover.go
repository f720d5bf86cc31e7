package middlewares

import (
	"net/http"

	"github.com/janboddez/indieauth/internal/http/errors"
	"github.com/janboddez/indieauth/internal/observability/logger"
)

// WithRecover turns panics into a 500 response instead of crashing the
// server.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.From(r.Context())
					log.Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					errors.WriteError(w, errors.ErrInternalServerError.WithDetail("panic recovered"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
