// Package indieauth implements the IndieAuth protocol engine:
// authorization, consent, code exchange, introspection, revocation and
// server metadata. Controllers translate the sentinel errors declared
// here into HTTP responses.
package indieauth

import (
	"time"

	"github.com/janboddez/indieauth/internal/cache"
	"github.com/janboddez/indieauth/internal/discovery"
	"github.com/janboddez/indieauth/internal/store"
)

const (
	requestCachePrefix = "indieauth:request:"
	codeCachePrefix    = "indieauth:code:"

	requestTTL = 10 * time.Minute
	codeTTL    = 5 * time.Minute
)

// Deps carries the collaborators the services need.
type Deps struct {
	Cache    cache.Cache
	Tokens   store.TokenStore
	Users    store.UserDirectory
	Resolver *discovery.Resolver

	// Issuer is the server's base URL, without trailing slash.
	Issuer string
}

// Services aggregates the IndieAuth services for the controllers.
type Services struct {
	Authorize  AuthorizeService
	Consent    ConsentService
	Token      TokenService
	Introspect IntrospectService
	Revoke     RevokeService
	Metadata   MetadataService
}

// New wires all services from a single dependency set.
func New(d Deps) *Services {
	return &Services{
		Authorize:  NewAuthorizeService(d),
		Consent:    NewConsentService(d),
		Token:      NewTokenService(d),
		Introspect: NewIntrospectService(d),
		Revoke:     NewRevokeService(d),
		Metadata:   NewMetadataService(d),
	}
}

// pendingRequest is the payload parked in the cache between the
// authorization request and the user's consent.
type pendingRequest struct {
	ClientID      string   `json:"client_id"`
	RedirectURI   string   `json:"redirect_uri"`
	State         string   `json:"state"`
	CodeChallenge string   `json:"code_challenge,omitempty"`
	Scopes        []string `json:"scopes,omitempty"`
}

// codePayload is the payload bound to an authorization code.
type codePayload struct {
	UserID        string   `json:"user_id"`
	ClientID      string   `json:"client_id"`
	RedirectURI   string   `json:"redirect_uri"`
	CodeChallenge string   `json:"code_challenge,omitempty"`
	Scopes        []string `json:"scopes,omitempty"`
}
