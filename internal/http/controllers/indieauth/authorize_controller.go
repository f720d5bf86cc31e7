package indieauth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	httperrors "github.com/janboddez/indieauth/internal/http/errors"
	svc "github.com/janboddez/indieauth/internal/http/services/indieauth"
	"github.com/janboddez/indieauth/internal/observability/logger"
)

// AuthorizeController handles the authorization endpoint: GET starts a
// request and renders the consent view model, POST either approves a
// consent or, when a code field is present, verifies an authorization
// code for identity.
type AuthorizeController struct {
	authorize svc.AuthorizeService
	consent   svc.ConsentService
	token     svc.TokenService
	who       CurrentUser
}

// NewAuthorizeController creates the controller.
func NewAuthorizeController(a svc.AuthorizeService, c svc.ConsentService, t svc.TokenService, who CurrentUser) *AuthorizeController {
	return &AuthorizeController{authorize: a, consent: c, token: t, who: who}
}

// Begin handles GET /indieauth/.
func (c *AuthorizeController) Begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("indieauth.authorize"))

	if _, ok := c.who.UserID(r); !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("Sign in to authorize this client."))
		return
	}

	q := r.URL.Query()
	view, err := c.authorize.Begin(ctx, svc.BeginRequest{
		ClientID:      strings.TrimSpace(q.Get("client_id")),
		RedirectURI:   strings.TrimSpace(q.Get("redirect_uri")),
		State:         strings.TrimSpace(q.Get("state")),
		Scope:         q.Get("scope"),
		CodeChallenge: strings.TrimSpace(q.Get("code_challenge")),
	})
	if err != nil {
		c.writeBeginError(w, log, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, view)
}

// Submit handles POST /indieauth/. A code field selects code
// verification; anything else is a consent approval.
func (c *AuthorizeController) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Invalid form data."))
		return
	}

	if r.PostForm.Get("code") != "" {
		c.verifyCode(w, r)
		return
	}
	c.approve(w, r)
}

func (c *AuthorizeController) verifyCode(w http.ResponseWriter, r *http.Request) {
	resp, err := c.token.VerifyCode(r.Context(), svc.ExchangeRequest{
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

func (c *AuthorizeController) approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("indieauth.consent"))

	userID, _ := c.who.UserID(r)
	redirect, err := c.consent.Approve(ctx, svc.ApproveRequest{
		RequestToken: strings.TrimSpace(r.PostForm.Get("request_token")),
		UserID:       userID,
		Scopes:       r.PostForm["scope"],
	})
	if err != nil {
		c.writeConsentError(w, log, err)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

func (c *AuthorizeController) writeBeginError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch err {
	case svc.ErrAuthorizeMissingClientID:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Missing client ID."))
	case svc.ErrAuthorizeInvalidClientID:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Invalid client ID."))
	case svc.ErrAuthorizeMissingRedirectURI:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Missing redirect URI."))
	case svc.ErrAuthorizeInvalidRedirectURI:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Invalid redirect URI."))
	case svc.ErrAuthorizeRedirectNotAllowed:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Redirect URI not registered by client."))
	case svc.ErrAuthorizeMissingState:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Missing state parameter."))
	case svc.ErrAuthorizeInvalidScope:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Unsupported scope."))
	default:
		log.Error("authorize endpoint error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

func (c *AuthorizeController) writeConsentError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch err {
	case svc.ErrConsentUnauthenticated:
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("Sign in to approve this request."))
	case svc.ErrConsentMissingToken, svc.ErrConsentNotFound:
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("Unknown or expired authorization request."))
	case svc.ErrConsentInvalidScope:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Unsupported scope."))
	default:
		log.Error("consent endpoint error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
