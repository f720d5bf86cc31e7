package indieauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"github.com/janboddez/indieauth/internal/cache"
	"github.com/janboddez/indieauth/internal/discovery"
	dto "github.com/janboddez/indieauth/internal/http/dto/indieauth"
	"github.com/janboddez/indieauth/internal/observability/logger"
	tokens "github.com/janboddez/indieauth/internal/security/token"
	"github.com/janboddez/indieauth/internal/validation"
)

// AuthorizeService begins an authorization request: it validates the
// client parameters, parks the request in the cache and assembles the
// consent view model.
type AuthorizeService interface {
	Begin(ctx context.Context, req BeginRequest) (*dto.AuthorizeView, error)
}

// BeginRequest carries the raw query parameters of the authorization
// request.
type BeginRequest struct {
	ClientID      string
	RedirectURI   string
	State         string
	Scope         string
	CodeChallenge string
}

// Authorization request errors.
var (
	ErrAuthorizeMissingClientID    = errors.New("missing_client_id")
	ErrAuthorizeInvalidClientID    = errors.New("invalid_client_id")
	ErrAuthorizeMissingRedirectURI = errors.New("missing_redirect_uri")
	ErrAuthorizeInvalidRedirectURI = errors.New("invalid_redirect_uri")
	ErrAuthorizeRedirectNotAllowed = errors.New("redirect_uri_not_allowed")
	ErrAuthorizeMissingState       = errors.New("missing_state")
	ErrAuthorizeInvalidScope       = errors.New("invalid_scope")
	ErrAuthorizeServerError        = errors.New("server_error")
)

type authorizeService struct {
	cache    cache.Cache
	resolver *discovery.Resolver
}

// NewAuthorizeService creates a new AuthorizeService.
func NewAuthorizeService(d Deps) AuthorizeService {
	return &authorizeService{cache: d.Cache, resolver: d.Resolver}
}

func (s *authorizeService) Begin(ctx context.Context, req BeginRequest) (*dto.AuthorizeView, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("indieauth.authorize.begin"))

	if req.ClientID == "" {
		return nil, ErrAuthorizeMissingClientID
	}
	if !validAbsoluteURL(req.ClientID) {
		return nil, ErrAuthorizeInvalidClientID
	}
	if req.RedirectURI == "" {
		return nil, ErrAuthorizeMissingRedirectURI
	}
	if !validAbsoluteURL(req.RedirectURI) {
		return nil, ErrAuthorizeInvalidRedirectURI
	}
	if req.State == "" {
		return nil, ErrAuthorizeMissingState
	}

	scopes := validation.ParseScopeParam(req.Scope)
	if !validation.ValidScopes(scopes) {
		log.Warn("unsupported scope requested", logger.String("scope", req.Scope))
		return nil, ErrAuthorizeInvalidScope
	}

	if s.resolver != nil && !s.resolver.RedirectAllowed(ctx, req.ClientID, req.RedirectURI) {
		log.Warn("redirect_uri rejected",
			logger.ClientID(req.ClientID),
			logger.URL(req.RedirectURI))
		return nil, ErrAuthorizeRedirectNotAllowed
	}

	token, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		log.Error("request token generation failed", logger.Err(err))
		return nil, ErrAuthorizeServerError
	}

	payload, err := json.Marshal(pendingRequest{
		ClientID:      req.ClientID,
		RedirectURI:   req.RedirectURI,
		State:         req.State,
		CodeChallenge: req.CodeChallenge,
		Scopes:        scopes,
	})
	if err != nil {
		return nil, ErrAuthorizeServerError
	}
	s.cache.Set(ctx, requestCachePrefix+token, payload, requestTTL)

	// Client metadata is decorative: discovery failures must never
	// block the authorization flow.
	var meta *discovery.ClientMetadata
	if s.resolver != nil {
		meta = s.resolver.Resolve(ctx, req.ClientID)
	}

	log.Info("authorization request accepted",
		logger.ClientID(req.ClientID),
		logger.Scopes(scopes))

	return &dto.AuthorizeView{
		RequestToken: token,
		Scopes:       scopes,
		Client:       meta,
	}, nil
}

// validAbsoluteURL reports whether s parses as an absolute http(s) URL.
func validAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
