package indieauth

import (
	"net/http"
	"strings"

	httperrors "github.com/janboddez/indieauth/internal/http/errors"
	svc "github.com/janboddez/indieauth/internal/http/services/indieauth"
)

// RevokeController handles POST /indieauth/token/revocation. The same
// semantics are reachable via action=revoke at the token endpoint.
type RevokeController struct {
	service svc.RevokeService
}

// NewRevokeController creates the controller.
func NewRevokeController(s svc.RevokeService) *RevokeController {
	return &RevokeController{service: s}
}

// Revoke handles POST /indieauth/token/revocation. Always 200 with an
// empty object: revocation never discloses whether a token existed.
func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Invalid form data."))
		return
	}

	_ = c.service.Revoke(r.Context(), bearerToken(r), strings.TrimSpace(r.PostForm.Get("token")))
	httperrors.WriteJSON(w, http.StatusOK, struct{}{})
}
