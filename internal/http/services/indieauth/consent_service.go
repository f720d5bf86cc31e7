package indieauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/janboddez/indieauth/internal/cache"
	"github.com/janboddez/indieauth/internal/metrics"
	"github.com/janboddez/indieauth/internal/observability/logger"
	tokens "github.com/janboddez/indieauth/internal/security/token"
	"github.com/janboddez/indieauth/internal/validation"
)

// ConsentService turns an approved consent into an authorization code
// and the redirect back to the client.
type ConsentService interface {
	// Approve consumes the pending request behind requestToken, mints a
	// single-use authorization code and returns the redirect URL.
	Approve(ctx context.Context, req ApproveRequest) (string, error)
}

// ApproveRequest carries the consent form submission.
type ApproveRequest struct {
	RequestToken string
	UserID       string
	// Scopes are the scopes the user actually granted, possibly fewer
	// than requested.
	Scopes []string
}

// Consent errors.
var (
	ErrConsentUnauthenticated = errors.New("consent_unauthenticated")
	ErrConsentMissingToken    = errors.New("consent_missing_token")
	ErrConsentNotFound        = errors.New("consent_request_not_found")
	ErrConsentInvalidScope    = errors.New("consent_invalid_scope")
	ErrConsentServerError     = errors.New("server_error")
)

type consentService struct {
	cache cache.Cache
}

// NewConsentService creates a new ConsentService.
func NewConsentService(d Deps) ConsentService {
	return &consentService{cache: d.Cache}
}

func (s *consentService) Approve(ctx context.Context, req ApproveRequest) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("indieauth.consent.approve"))

	if req.UserID == "" {
		return "", ErrConsentUnauthenticated
	}
	if req.RequestToken == "" {
		return "", ErrConsentMissingToken
	}
	if !validation.ValidScopes(req.Scopes) {
		return "", ErrConsentInvalidScope
	}

	// One-shot: the pending request is gone after this, approved or not.
	data, ok := s.cache.Pull(ctx, requestCachePrefix+req.RequestToken)
	if !ok {
		log.Warn("pending request missing or expired")
		return "", ErrConsentNotFound
	}
	var pending pendingRequest
	if err := json.Unmarshal(data, &pending); err != nil {
		log.Error("pending request payload corrupt", logger.Err(err))
		return "", ErrConsentServerError
	}

	code, err := tokens.GenerateCode(64)
	if err != nil {
		log.Error("code generation failed", logger.Err(err))
		return "", ErrConsentServerError
	}

	payload, err := json.Marshal(codePayload{
		UserID:        req.UserID,
		ClientID:      pending.ClientID,
		RedirectURI:   pending.RedirectURI,
		CodeChallenge: pending.CodeChallenge,
		Scopes:        req.Scopes,
	})
	if err != nil {
		return "", ErrConsentServerError
	}
	s.cache.Set(ctx, codeCachePrefix+code, payload, codeTTL)

	redirect, err := appendQuery(pending.RedirectURI, map[string]string{
		"state": pending.State,
		"code":  code,
	})
	if err != nil {
		return "", ErrConsentServerError
	}

	metrics.AuthCodesIssued.Inc()
	log.Info("authorization code issued",
		logger.ClientID(pending.ClientID),
		logger.UserID(req.UserID),
		logger.Scopes(req.Scopes))

	return redirect, nil
}

// appendQuery adds params to rawURL, preserving any existing query.
func appendQuery(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
