package indieauth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachememory "github.com/janboddez/indieauth/internal/cache/memory"
	tokens "github.com/janboddez/indieauth/internal/security/token"
	"github.com/janboddez/indieauth/internal/store"
	storememory "github.com/janboddez/indieauth/internal/store/memory"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	users := storememory.NewUserDirectory(store.User{
		ID:    "u1",
		Name:  "Jane Doe",
		URL:   "https://jane.example/",
		Email: "jane@example.com",
	})
	return Deps{
		Cache:  cachememory.New(time.Minute),
		Tokens: storememory.NewTokenStore(),
		Users:  users,
		Issuer: "https://auth.example",
	}
}

func TestBeginValidation(t *testing.T) {
	s := NewAuthorizeService(newTestDeps(t))
	ctx := context.Background()

	base := BeginRequest{
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/callback",
		State:       "xyz",
	}

	cases := []struct {
		name    string
		mutate  func(*BeginRequest)
		wantErr error
	}{
		{"missing client_id", func(r *BeginRequest) { r.ClientID = "" }, ErrAuthorizeMissingClientID},
		{"relative client_id", func(r *BeginRequest) { r.ClientID = "/app" }, ErrAuthorizeInvalidClientID},
		{"non-http client_id", func(r *BeginRequest) { r.ClientID = "ftp://app.example/" }, ErrAuthorizeInvalidClientID},
		{"missing redirect_uri", func(r *BeginRequest) { r.RedirectURI = "" }, ErrAuthorizeMissingRedirectURI},
		{"invalid redirect_uri", func(r *BeginRequest) { r.RedirectURI = "not a url" }, ErrAuthorizeInvalidRedirectURI},
		{"missing state", func(r *BeginRequest) { r.State = "" }, ErrAuthorizeMissingState},
		{"unknown scope", func(r *BeginRequest) { r.Scope = "create banana" }, ErrAuthorizeInvalidScope},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := s.Begin(ctx, req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestBeginStoresPendingRequest(t *testing.T) {
	d := newTestDeps(t)
	s := NewAuthorizeService(d)
	ctx := context.Background()

	view, err := s.Begin(ctx, BeginRequest{
		ClientID:      "https://app.example/",
		RedirectURI:   "https://app.example/callback",
		State:         "xyz",
		Scope:         "create update create", // duplicates collapse
		CodeChallenge: "challenge",
	})
	require.NoError(t, err)
	require.NotEmpty(t, view.RequestToken)
	assert.Equal(t, []string{"create", "update"}, view.Scopes)
	assert.Nil(t, view.Client) // no resolver configured

	data, ok := d.Cache.Get(ctx, requestCachePrefix+view.RequestToken)
	require.True(t, ok)
	assert.Contains(t, string(data), "https://app.example/callback")
}

func TestApproveHappyPath(t *testing.T) {
	d := newTestDeps(t)
	authz := NewAuthorizeService(d)
	consent := NewConsentService(d)
	ctx := context.Background()

	view, err := authz.Begin(ctx, BeginRequest{
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/callback?kept=1",
		State:       "state-123",
		Scope:       "create",
	})
	require.NoError(t, err)

	redirect, err := consent.Approve(ctx, ApproveRequest{
		RequestToken: view.RequestToken,
		UserID:       "u1",
		Scopes:       []string{"create"},
	})
	require.NoError(t, err)

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "1", q.Get("kept"), "existing query params survive")
	require.NotEmpty(t, q.Get("code"))

	// The code is parked in the cache under its own key.
	_, ok := d.Cache.Get(ctx, codeCachePrefix+q.Get("code"))
	assert.True(t, ok)
}

func TestApproveErrors(t *testing.T) {
	d := newTestDeps(t)
	consent := NewConsentService(d)
	ctx := context.Background()

	_, err := consent.Approve(ctx, ApproveRequest{RequestToken: "tok", Scopes: []string{"create"}})
	assert.ErrorIs(t, err, ErrConsentUnauthenticated)

	_, err = consent.Approve(ctx, ApproveRequest{UserID: "u1", Scopes: []string{"create"}})
	assert.ErrorIs(t, err, ErrConsentMissingToken)

	_, err = consent.Approve(ctx, ApproveRequest{UserID: "u1", RequestToken: "nope", Scopes: []string{"create"}})
	assert.ErrorIs(t, err, ErrConsentNotFound)

	_, err = consent.Approve(ctx, ApproveRequest{UserID: "u1", RequestToken: "tok", Scopes: []string{"banana"}})
	assert.ErrorIs(t, err, ErrConsentInvalidScope)
}

func TestApproveIsOneShot(t *testing.T) {
	d := newTestDeps(t)
	authz := NewAuthorizeService(d)
	consent := NewConsentService(d)
	ctx := context.Background()

	view, err := authz.Begin(ctx, BeginRequest{
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/cb",
		State:       "s",
	})
	require.NoError(t, err)

	req := ApproveRequest{RequestToken: view.RequestToken, UserID: "u1"}
	_, err = consent.Approve(ctx, req)
	require.NoError(t, err)

	_, err = consent.Approve(ctx, req)
	assert.ErrorIs(t, err, ErrConsentNotFound)
}

// issueCode runs the begin+approve legs and returns the minted code.
func issueCode(t *testing.T, d Deps, scope, challenge string) string {
	t.Helper()
	ctx := context.Background()

	view, err := NewAuthorizeService(d).Begin(ctx, BeginRequest{
		ClientID:      "https://app.example/",
		RedirectURI:   "https://app.example/cb",
		State:         "s",
		Scope:         scope,
		CodeChallenge: challenge,
	})
	require.NoError(t, err)

	redirect, err := NewConsentService(d).Approve(ctx, ApproveRequest{
		RequestToken: view.RequestToken,
		UserID:       "u1",
		Scopes:       view.Scopes,
	})
	require.NoError(t, err)

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	return u.Query().Get("code")
}

func TestExchangeIssuesToken(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)
	ctx := context.Background()

	verifier := "some-verifier-value-that-is-long-enough"
	code := issueCode(t, d, "profile create update", tokens.SHA256Base64URL(verifier))

	resp, err := svc.Exchange(ctx, ExchangeRequest{
		Code:         code,
		ClientID:     "https://app.example/",
		RedirectURI:  "https://app.example/cb",
		CodeVerifier: verifier,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://jane.example/", resp.Me)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "Jane Doe", resp.Profile.Name)
	assert.Empty(t, resp.Profile.Email, "email scope was not granted")
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "profile create update", resp.Scope)

	// The minted token is live in the store.
	tok, err := d.Tokens.FindByValue(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", tok.UserID)
	assert.Equal(t, []string{"profile", "create", "update"}, tok.Abilities)
}

func TestExchangeIdentityOnly(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)
	ctx := context.Background()

	code := issueCode(t, d, "profile email", "")
	resp, err := svc.Exchange(ctx, ExchangeRequest{
		Code:        code,
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/cb",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.AccessToken, "identity scopes alone do not mint a token")
	require.NotNil(t, resp.Profile)
	assert.Equal(t, "jane@example.com", resp.Profile.Email)
	assert.Nil(t, resp.Email)
}

func TestExchangeEmailOnly(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)

	code := issueCode(t, d, "email", "")
	resp, err := svc.Exchange(context.Background(), ExchangeRequest{
		Code:        code,
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/cb",
	})
	require.NoError(t, err)

	assert.Nil(t, resp.Profile)
	require.NotNil(t, resp.Email)
	assert.Equal(t, "jane@example.com", resp.Email.Email)
}

func TestExchangeZeroScope(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)

	code := issueCode(t, d, "", "")
	resp, err := svc.Exchange(context.Background(), ExchangeRequest{
		Code:        code,
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/cb",
	})
	require.NoError(t, err)

	// A grant with no scopes confirms identity and nothing else.
	assert.Equal(t, "https://jane.example/", resp.Me)
	assert.Nil(t, resp.Profile)
	assert.Nil(t, resp.Email)
	assert.Empty(t, resp.AccessToken)
	assert.Empty(t, resp.Scope)
}

func TestVerifyCodeNeverMintsToken(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)

	code := issueCode(t, d, "profile create", "")
	resp, err := svc.VerifyCode(context.Background(), ExchangeRequest{
		Code:        code,
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/cb",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.AccessToken)
	assert.Equal(t, "https://jane.example/", resp.Me)
}

func TestExchangeErrors(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)
	ctx := context.Background()

	_, err := svc.Exchange(ctx, ExchangeRequest{})
	assert.ErrorIs(t, err, ErrTokenMissingCode)

	_, err = svc.Exchange(ctx, ExchangeRequest{Code: "unknown"})
	assert.ErrorIs(t, err, ErrTokenUnknownCode)
}

func TestExchangeIsOneShot(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)
	ctx := context.Background()

	code := issueCode(t, d, "create", "")
	req := ExchangeRequest{
		Code:        code,
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/cb",
	}

	_, err := svc.Exchange(ctx, req)
	require.NoError(t, err)

	_, err = svc.Exchange(ctx, req)
	assert.ErrorIs(t, err, ErrTokenUnknownCode)
}

func TestExchangeMismatchBurnsCode(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)
	ctx := context.Background()

	code := issueCode(t, d, "create", "")

	_, err := svc.Exchange(ctx, ExchangeRequest{
		Code:        code,
		ClientID:    "https://evil.example/",
		RedirectURI: "https://app.example/cb",
	})
	assert.ErrorIs(t, err, ErrTokenClientMismatch)

	// The failed attempt consumed the code: a correct retry is refused.
	_, err = svc.Exchange(ctx, ExchangeRequest{
		Code:        code,
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/cb",
	})
	assert.ErrorIs(t, err, ErrTokenUnknownCode)
}

func TestExchangeRedirectMismatch(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)

	code := issueCode(t, d, "create", "")
	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Code:        code,
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/other",
	})
	assert.ErrorIs(t, err, ErrTokenRedirectMismatch)
}

func TestExchangePKCE(t *testing.T) {
	verifier := "correct-horse-battery-staple"
	challenge := tokens.SHA256Base64URL(verifier)

	t.Run("missing verifier", func(t *testing.T) {
		d := newTestDeps(t)
		code := issueCode(t, d, "create", challenge)
		_, err := NewTokenService(d).Exchange(context.Background(), ExchangeRequest{
			Code:        code,
			ClientID:    "https://app.example/",
			RedirectURI: "https://app.example/cb",
		})
		assert.ErrorIs(t, err, ErrTokenPKCEFailed)
	})

	t.Run("wrong verifier", func(t *testing.T) {
		d := newTestDeps(t)
		code := issueCode(t, d, "create", challenge)
		_, err := NewTokenService(d).Exchange(context.Background(), ExchangeRequest{
			Code:         code,
			ClientID:     "https://app.example/",
			RedirectURI:  "https://app.example/cb",
			CodeVerifier: "wrong-verifier",
		})
		assert.ErrorIs(t, err, ErrTokenPKCEFailed)
	})

	t.Run("no challenge, verifier ignored", func(t *testing.T) {
		d := newTestDeps(t)
		code := issueCode(t, d, "create", "")
		_, err := NewTokenService(d).Exchange(context.Background(), ExchangeRequest{
			Code:         code,
			ClientID:     "https://app.example/",
			RedirectURI:  "https://app.example/cb",
			CodeVerifier: "anything",
		})
		assert.NoError(t, err)
	})
}

func TestExchangeSanitizesCode(t *testing.T) {
	d := newTestDeps(t)
	svc := NewTokenService(d)

	code := issueCode(t, d, "create", "")
	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Code:        " " + code + "\n",
		ClientID:    "https://app.example/",
		RedirectURI: "https://app.example/cb",
	})
	assert.NoError(t, err, "stray whitespace around the code is stripped")
}

func TestIntrospect(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	value, err := d.Tokens.Create(ctx, "u1", "https://app.example/", []string{"create", "update"})
	require.NoError(t, err)

	svc := NewIntrospectService(d)
	resp, err := svc.Introspect(ctx, value)
	require.NoError(t, err)
	assert.Equal(t, "https://jane.example/", resp.Me)
	assert.Equal(t, "https://app.example/", resp.ClientID)
	assert.Equal(t, "create update", resp.Scope)

	// Introspection stamps last use.
	tok, err := d.Tokens.FindByValue(ctx, value)
	require.NoError(t, err)
	require.NotNil(t, tok.LastUsedAt)
	assert.WithinDuration(t, time.Now(), *tok.LastUsedAt, 5*time.Second)
}

func TestIntrospectErrors(t *testing.T) {
	svc := NewIntrospectService(newTestDeps(t))
	ctx := context.Background()

	_, err := svc.Introspect(ctx, "")
	assert.ErrorIs(t, err, ErrIntrospectMissingToken)

	_, err = svc.Introspect(ctx, "bogus")
	assert.ErrorIs(t, err, ErrIntrospectUnknownToken)
}

func TestRevoke(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	svc := NewRevokeService(d)

	value, err := d.Tokens.Create(ctx, "u1", "https://app.example/", []string{"create"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, value, ""))
	_, err = d.Tokens.FindByValue(ctx, value)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Revoking again, or revoking garbage, still succeeds.
	assert.NoError(t, svc.Revoke(ctx, value, "garbage"))
}

func TestRevokeByFormParam(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()

	value, err := d.Tokens.Create(ctx, "u1", "https://app.example/", []string{"create"})
	require.NoError(t, err)

	require.NoError(t, NewRevokeService(d).Revoke(ctx, "", value))
	_, err = d.Tokens.FindByValue(ctx, value)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMetadata(t *testing.T) {
	d := newTestDeps(t)
	resp := NewMetadataService(d).Metadata()

	assert.Equal(t, "https://auth.example/indieauth", resp.Issuer)
	assert.Equal(t, "https://auth.example/indieauth/", resp.AuthorizationEndpoint)
	assert.Equal(t, "https://auth.example/indieauth/token", resp.TokenEndpoint)
	assert.Equal(t, "https://auth.example/indieauth/token/revocation", resp.RevocationEndpoint)
	assert.Equal(t, []string{"none"}, resp.RevocationEndpointAuthMethodsSupported)
	assert.Equal(t, []string{"S256"}, resp.CodeChallengeMethodsSupported)
	assert.Contains(t, resp.ScopesSupported, "profile")
	assert.Contains(t, resp.ScopesSupported, "channels")
}
