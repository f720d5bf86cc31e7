package indieauth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/janboddez/indieauth/internal/cache"
	dto "github.com/janboddez/indieauth/internal/http/dto/indieauth"
	"github.com/janboddez/indieauth/internal/metrics"
	"github.com/janboddez/indieauth/internal/observability/logger"
	tokens "github.com/janboddez/indieauth/internal/security/token"
	"github.com/janboddez/indieauth/internal/store"
	"github.com/janboddez/indieauth/internal/validation"
)

// TokenService redeems authorization codes. Exchange additionally mints
// an access token when the grant goes beyond identity scopes; VerifyCode
// only confirms identity.
type TokenService interface {
	Exchange(ctx context.Context, req ExchangeRequest) (*dto.TokenResponse, error)
	VerifyCode(ctx context.Context, req ExchangeRequest) (*dto.TokenResponse, error)
}

// ExchangeRequest carries the code redemption parameters.
type ExchangeRequest struct {
	Code         string
	ClientID     string
	RedirectURI  string
	CodeVerifier string
}

// Code redemption errors.
var (
	ErrTokenMissingCode      = errors.New("missing_code")
	ErrTokenUnknownCode      = errors.New("unknown_code")
	ErrTokenClientMismatch   = errors.New("client_id_mismatch")
	ErrTokenRedirectMismatch = errors.New("redirect_uri_mismatch")
	ErrTokenPKCEFailed       = errors.New("pkce_validation_failed")
	ErrTokenServerError      = errors.New("server_error")
)

type tokenService struct {
	cache  cache.Cache
	tokens store.TokenStore
	users  store.UserDirectory
}

// NewTokenService creates a new TokenService.
func NewTokenService(d Deps) TokenService {
	return &tokenService{cache: d.Cache, tokens: d.Tokens, users: d.Users}
}

// Exchange implements the token endpoint: identity response plus an
// access token when the granted scopes warrant one.
func (s *tokenService) Exchange(ctx context.Context, req ExchangeRequest) (*dto.TokenResponse, error) {
	return s.redeem(ctx, req, true)
}

// VerifyCode implements code verification at the authorization
// endpoint: identity response only, never a token.
func (s *tokenService) VerifyCode(ctx context.Context, req ExchangeRequest) (*dto.TokenResponse, error) {
	return s.redeem(ctx, req, false)
}

func (s *tokenService) redeem(ctx context.Context, req ExchangeRequest, withToken bool) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("indieauth.token.redeem"))

	if req.Code == "" {
		metrics.CodeExchangeFailures.WithLabelValues("missing_code").Inc()
		return nil, ErrTokenMissingCode
	}
	code := tokens.SanitizeCode(req.Code)

	// One-shot: the code is burned here even if validation below fails.
	data, ok := s.cache.Pull(ctx, codeCachePrefix+code)
	if !ok {
		log.Warn("authorization code unknown or already used")
		metrics.CodeExchangeFailures.WithLabelValues("unknown_code").Inc()
		return nil, ErrTokenUnknownCode
	}
	var payload codePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Error("code payload corrupt", logger.Err(err))
		return nil, ErrTokenServerError
	}

	if payload.ClientID != req.ClientID {
		log.Warn("client_id mismatch", logger.ClientID(req.ClientID))
		metrics.CodeExchangeFailures.WithLabelValues("client_mismatch").Inc()
		return nil, ErrTokenClientMismatch
	}
	if payload.RedirectURI != req.RedirectURI {
		log.Warn("redirect_uri mismatch", logger.URL(req.RedirectURI))
		metrics.CodeExchangeFailures.WithLabelValues("redirect_mismatch").Inc()
		return nil, ErrTokenRedirectMismatch
	}

	// A stored challenge makes the verifier mandatory.
	if payload.CodeChallenge != "" {
		if req.CodeVerifier == "" || !tokens.VerifyS256(req.CodeVerifier, payload.CodeChallenge) {
			log.Warn("PKCE verification failed", logger.ClientID(req.ClientID))
			metrics.CodeExchangeFailures.WithLabelValues("pkce").Inc()
			return nil, ErrTokenPKCEFailed
		}
	}

	user, err := s.users.GetByID(ctx, payload.UserID)
	if err != nil {
		log.Error("grant user lookup failed", logger.UserID(payload.UserID), logger.Err(err))
		return nil, ErrTokenServerError
	}

	resp := buildIdentityResponse(user, payload.Scopes)

	if withToken && validation.TokenWorthy(payload.Scopes) {
		value, err := s.tokens.Create(ctx, user.ID, payload.ClientID, payload.Scopes)
		if err != nil {
			log.Error("access token creation failed", logger.Err(err))
			return nil, ErrTokenServerError
		}
		resp.AccessToken = value
		resp.TokenType = "Bearer"
		resp.Scope = strings.Join(payload.Scopes, " ")
		metrics.TokensIssued.Inc()
	}

	log.Info("authorization code redeemed",
		logger.ClientID(payload.ClientID),
		logger.UserID(user.ID),
		logger.Scopes(payload.Scopes))

	return resp, nil
}

// buildIdentityResponse assembles the identity part of the response:
// profile data when the profile scope was granted, a bare email object
// when only the email scope was.
func buildIdentityResponse(user *store.User, scopes []string) *dto.TokenResponse {
	resp := &dto.TokenResponse{Me: user.URL}
	switch {
	case validation.HasScope(scopes, "profile"):
		p := &dto.Profile{Name: user.Name, URL: user.URL}
		if validation.HasScope(scopes, "email") {
			p.Email = user.Email
		}
		resp.Profile = p
	case validation.HasScope(scopes, "email"):
		resp.Email = &dto.Email{Email: user.Email}
	}
	return resp
}
