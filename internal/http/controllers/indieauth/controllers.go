// Package indieauth contains the HTTP controllers of the IndieAuth
// endpoints. Controllers parse requests, delegate to the services and
// translate sentinel errors into HTTP responses.
package indieauth

import (
	"net/http"
	"strings"

	svc "github.com/janboddez/indieauth/internal/http/services/indieauth"
)

// CurrentUser resolves the authenticated user of a request. The host
// application owns sessions; this rendition only needs the user ID.
type CurrentUser interface {
	// UserID returns the authenticated user's ID, or false when the
	// request is anonymous.
	UserID(r *http.Request) (string, bool)
}

// Controllers aggregates the IndieAuth controllers for the router.
type Controllers struct {
	Authorize  *AuthorizeController
	Token      *TokenController
	Introspect *IntrospectController
	Revoke     *RevokeController
	Metadata   *MetadataController
}

// New wires all controllers from the service set.
func New(s *svc.Services, who CurrentUser) *Controllers {
	return &Controllers{
		Authorize:  NewAuthorizeController(s.Authorize, s.Consent, s.Token, who),
		Token:      NewTokenController(s.Token, s.Revoke),
		Introspect: NewIntrospectController(s.Introspect),
		Revoke:     NewRevokeController(s.Revoke),
		Metadata:   NewMetadataController(s.Metadata),
	}
}

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
