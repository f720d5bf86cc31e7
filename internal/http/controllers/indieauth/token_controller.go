package indieauth

import (
	"net/http"
	"strings"

	httperrors "github.com/janboddez/indieauth/internal/http/errors"
	svc "github.com/janboddez/indieauth/internal/http/services/indieauth"
	"github.com/janboddez/indieauth/internal/observability/logger"
)

// TokenController handles POST /indieauth/token: code exchange, or
// revocation when the form carries action=revoke.
type TokenController struct {
	token  svc.TokenService
	revoke svc.RevokeService
}

// NewTokenController creates the controller.
func NewTokenController(t svc.TokenService, rv svc.RevokeService) *TokenController {
	return &TokenController{token: t, revoke: rv}
}

// Token handles POST /indieauth/token.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Invalid form data."))
		return
	}

	if r.PostForm.Get("action") == "revoke" {
		_ = c.revoke.Revoke(ctx, bearerToken(r), strings.TrimSpace(r.PostForm.Get("token")))
		httperrors.WriteJSON(w, http.StatusOK, struct{}{})
		return
	}

	resp, err := c.token.Exchange(ctx, svc.ExchangeRequest{
		Code:         r.PostForm.Get("code"),
		ClientID:     strings.TrimSpace(r.PostForm.Get("client_id")),
		RedirectURI:  strings.TrimSpace(r.PostForm.Get("redirect_uri")),
		CodeVerifier: strings.TrimSpace(r.PostForm.Get("code_verifier")),
	})
	if err != nil {
		writeRedeemError(w, r, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, resp)
}

// writeRedeemError maps code redemption errors, shared with the code
// verification path at the authorization endpoint.
func writeRedeemError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("indieauth.token"))
	switch err {
	case svc.ErrTokenMissingCode:
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("Missing authorization code."))
	case svc.ErrTokenUnknownCode:
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("Unknown or expired authorization code."))
	case svc.ErrTokenClientMismatch:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Client ID does not match."))
	case svc.ErrTokenRedirectMismatch:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Redirect URI does not match."))
	case svc.ErrTokenPKCEFailed:
		httperrors.WriteError(w, httperrors.ErrPKCEFailed)
	default:
		log.Error("code redemption error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
