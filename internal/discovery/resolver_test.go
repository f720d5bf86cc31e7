package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janboddez/indieauth/internal/cache/memory"
)

func newResolver() *Resolver {
	return New(memory.New(time.Minute), nil, 5*time.Second, DefaultThumbnailSize)
}

func TestResolveJSONDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"client_name":"Quill","logo_uri":"/logo.png","redirect_uris":["https://other.example/cb"]}`))
	}))
	defer srv.Close()

	meta := newResolver().Resolve(context.Background(), srv.URL)
	require.NotNil(t, meta)
	assert.Equal(t, "Quill", meta.Name)
	assert.Equal(t, srv.URL+"/logo.png", meta.Icon)
	assert.Equal(t, []string{"https://other.example/cb"}, meta.RedirectURIs)
}

func TestResolveHApp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Fallback Title</title></head><body>
			<div class="h-app">
				<img class="u-logo" src="/icon.png">
				<a class="p-name u-url" href="/">Awesome <b>App</b></a>
			</div>
		</body></html>`))
	}))
	defer srv.Close()

	meta := newResolver().Resolve(context.Background(), srv.URL)
	require.NotNil(t, meta)
	assert.Equal(t, "Awesome App", meta.Name, "markup is stripped from the name")
	assert.Equal(t, srv.URL+"/icon.png", meta.Icon)
}

func TestResolveTitleAndIconFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<title>  Plain Site  </title>
			<link rel="shortcut icon" href="favicon.ico">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	meta := newResolver().Resolve(context.Background(), srv.URL)
	require.NotNil(t, meta)
	assert.Equal(t, "Plain Site", meta.Name)
	assert.Equal(t, srv.URL+"/favicon.ico", meta.Icon)
}

func TestResolveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	meta := newResolver().Resolve(context.Background(), srv.URL)
	assert.Nil(t, meta)
}

func TestResolveCachesResult(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"client_name":"Once"}`))
	}))
	defer srv.Close()

	r := newResolver()
	ctx := context.Background()

	first := r.Resolve(ctx, srv.URL)
	second := r.Resolve(ctx, srv.URL)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 1, hits, "second resolve must come from the cache")
}

func TestResolveFailureNotCached(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	r := newResolver()
	ctx := context.Background()

	assert.Nil(t, r.Resolve(ctx, srv.URL))
	assert.Nil(t, r.Resolve(ctx, srv.URL))
	assert.Equal(t, 2, hits, "failures are retried, not cached")
}

func TestRedirectAllowedSameHost(t *testing.T) {
	r := newResolver()
	ok := r.RedirectAllowed(context.Background(), "https://app.example/", "https://app.example/callback")
	assert.True(t, ok)
}

func TestRedirectAllowedWhitelist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<link rel="redirect_uri" href="https://other.example/cb">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	r := newResolver()
	ctx := context.Background()

	assert.True(t, r.RedirectAllowed(ctx, srv.URL, "https://other.example/cb"))
	assert.False(t, r.RedirectAllowed(ctx, srv.URL, "https://evil.example/cb"))
}

func TestRedirectAllowedLinkHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<https://other.example/cb>; rel="redirect_uri"`)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>App</title></head></html>`))
	}))
	defer srv.Close()

	assert.True(t, newResolver().RedirectAllowed(context.Background(), srv.URL, "https://other.example/cb"))
}

func TestValidAbsoluteURL(t *testing.T) {
	assert.True(t, validAbsoluteURL("https://app.example/x"))
	assert.True(t, validAbsoluteURL("http://app.example"))
	assert.False(t, validAbsoluteURL("/relative"))
	assert.False(t, validAbsoluteURL("ftp://app.example"))
	assert.False(t, validAbsoluteURL("not a url"))
}
