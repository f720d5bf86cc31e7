// Package indieauth contains the wire shapes of the IndieAuth endpoints.
package indieauth

import "github.com/janboddez/indieauth/internal/discovery"

// AuthorizeView is the consent view model returned to the host's
// consent renderer: the pending request handle, the requested scopes
// and whatever client metadata discovery produced (possibly nil).
type AuthorizeView struct {
	RequestToken string                    `json:"request_token"`
	Scopes       []string                  `json:"scopes"`
	Client       *discovery.ClientMetadata `json:"client"`
}

// Profile is the profile object included when the profile scope was
// granted. Empty fields are omitted from the JSON.
type Profile struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Photo string `json:"photo,omitempty"`
	Email string `json:"email,omitempty"`
}

// Email is the email object included when only the email scope was
// granted.
type Email struct {
	Email string `json:"email"`
}

// TokenResponse is the code-exchange response. Token fields are present
// only when the grant warranted an access token.
type TokenResponse struct {
	Me          string   `json:"me"`
	Profile     *Profile `json:"profile,omitempty"`
	Email       *Email   `json:"email,omitempty"`
	AccessToken string   `json:"access_token,omitempty"`
	TokenType   string   `json:"token_type,omitempty"`
	Scope       string   `json:"scope,omitempty"`
}

// IntrospectResponse answers GET /indieauth/token.
type IntrospectResponse struct {
	Me       string `json:"me"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// MetadataResponse is the server metadata document.
type MetadataResponse struct {
	Issuer                                 string   `json:"issuer"`
	AuthorizationEndpoint                  string   `json:"authorization_endpoint"`
	TokenEndpoint                          string   `json:"token_endpoint"`
	RevocationEndpoint                     string   `json:"revocation_endpoint"`
	RevocationEndpointAuthMethodsSupported []string `json:"revocation_endpoint_auth_methods_supported"`
	ScopesSupported                        []string `json:"scopes_supported"`
	ResponseTypesSupported                 []string `json:"response_types_supported"`
	CodeChallengeMethodsSupported          []string `json:"code_challenge_methods_supported"`
}
