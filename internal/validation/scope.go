// Package validation holds the fixed IndieAuth scope set and the helpers
// shared by the authorization and consent code paths. Both sites validate
// against the same list so they cannot drift.
package validation

import "strings"

// Scopes is the closed set of scopes this server understands, in the
// order they are advertised in the server metadata document.
var Scopes = []string{
	"profile",
	"email",
	"create",
	"draft",
	"update",
	"delete",
	"media",
	"read",
	"follow",
	"channels",
	"mute",
	"block",
}

var scopeSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Scopes))
	for _, s := range Scopes {
		m[s] = struct{}{}
	}
	return m
}()

// ValidScope reports whether name is one of the supported scopes.
func ValidScope(name string) bool {
	_, ok := scopeSet[name]
	return ok
}

// ValidScopes reports whether every entry is a supported scope.
// An empty list is valid (identity-only grant).
func ValidScopes(scopes []string) bool {
	for _, s := range scopes {
		if !ValidScope(s) {
			return false
		}
	}
	return true
}

// ParseScopeParam splits a space-separated scope parameter into a
// deduplicated list, preserving first-seen order. Empty fields are
// dropped; validity is NOT checked here.
func ParseScopeParam(param string) []string {
	fields := strings.Fields(param)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// TokenWorthy reports whether the granted scope list contains anything
// beyond the pure-identity scopes (profile, email). Identity-only grants
// get no access token.
func TokenWorthy(scopes []string) bool {
	for _, s := range scopes {
		if s != "profile" && s != "email" {
			return true
		}
	}
	return false
}

// HasScope reports whether scopes contains name.
func HasScope(scopes []string, name string) bool {
	for _, s := range scopes {
		if s == name {
			return true
		}
	}
	return false
}
