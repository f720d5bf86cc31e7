package indieauth

import (
	"net/http"

	httperrors "github.com/janboddez/indieauth/internal/http/errors"
	svc "github.com/janboddez/indieauth/internal/http/services/indieauth"
	"github.com/janboddez/indieauth/internal/observability/logger"
)

// IntrospectController handles GET /indieauth/token: resource servers
// verify a bearer token and learn who it belongs to.
type IntrospectController struct {
	service svc.IntrospectService
}

// NewIntrospectController creates the controller.
func NewIntrospectController(s svc.IntrospectService) *IntrospectController {
	return &IntrospectController{service: s}
}

// Introspect handles GET /indieauth/token.
func (c *IntrospectController) Introspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("indieauth.introspect"))

	resp, err := c.service.Introspect(ctx, bearerToken(r))
	if err != nil {
		switch err {
		case svc.ErrIntrospectMissingToken, svc.ErrIntrospectUnknownToken:
			httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("Missing or invalid bearer token."))
		default:
			log.Error("introspection error", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, resp)
}
