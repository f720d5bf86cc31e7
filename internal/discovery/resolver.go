// Package discovery resolves IndieAuth client metadata: given a client
// URL it derives a display name and icon, caching results in the TTL
// cache and cropped icon thumbnails in the object store.
//
// Discovery is best-effort everywhere: a failed fetch, parse or
// thumbnail write degrades to nil/empty results and a log entry. The
// authorization flow must never fail because enrichment failed.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/peterhellberg/link"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/janboddez/indieauth/internal/cache"
	"github.com/janboddez/indieauth/internal/metrics"
	"github.com/janboddez/indieauth/internal/objstore"
	"github.com/janboddez/indieauth/internal/observability/logger"
)

const (
	clientCachePrefix = "indieauth:client:"
	clientCacheTTL    = 24 * time.Hour

	maxDocumentBytes = 2 << 20 // client documents
	userAgent        = "indieauthd (+https://github.com/janboddez/indieauth)"
)

// ClientMetadata is the resolved display information for a client URL.
// Empty fields mean "unknown"; consumers render what is present.
type ClientMetadata struct {
	Name string `json:"name,omitempty"`
	Icon string `json:"icon,omitempty"`

	// RedirectURIs is the client's advertised rel="redirect_uri"
	// whitelist (Link headers and HTML link elements). Used to vet
	// redirect URIs on a different host than the client ID.
	RedirectURIs []string `json:"redirect_uris,omitempty"`
}

// clientMetadataDocument is the JSON client-metadata-document shape.
type clientMetadataDocument struct {
	ClientName   string   `json:"client_name"`
	LogoURI      string   `json:"logo_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

// Resolver fetches and caches client metadata.
type Resolver struct {
	cache  cache.Cache
	thumbs *Thumbnailer
	client *http.Client
}

// New creates a Resolver. store may be nil, in which case icons are
// served from their remote URL instead of a cached thumbnail.
func New(c cache.Cache, store objstore.Store, timeout time.Duration, thumbSize int) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	var thumbs *Thumbnailer
	if store != nil {
		thumbs = NewThumbnailer(store, hc, thumbSize)
	}

	return &Resolver{
		cache:  c,
		thumbs: thumbs,
		client: hc,
	}
}

// Resolve returns metadata for clientURL, cache-first with a 24-hour
// TTL. A failed discovery returns nil, never an error.
func (r *Resolver) Resolve(ctx context.Context, clientURL string) *ClientMetadata {
	log := logger.From(ctx).With(logger.Component("discovery"), logger.URL(clientURL))

	key := clientCachePrefix + clientURL
	if raw, ok := r.cache.Get(ctx, key); ok {
		var meta ClientMetadata
		if err := json.Unmarshal(raw, &meta); err == nil {
			metrics.ClientDiscoveries.WithLabelValues("hit").Inc()
			return &meta
		}
	}

	meta := r.discover(ctx, clientURL, log)
	if meta == nil {
		metrics.ClientDiscoveries.WithLabelValues("failed").Inc()
		return nil
	}

	if raw, err := json.Marshal(meta); err == nil {
		r.cache.Set(ctx, key, raw, clientCacheTTL)
	}
	metrics.ClientDiscoveries.WithLabelValues("resolved").Inc()
	return meta
}

// RedirectAllowed reports whether redirectURI may be used with clientID.
// Same scheme and host always pass; anything else must appear in the
// client's advertised redirect_uri whitelist.
func (r *Resolver) RedirectAllowed(ctx context.Context, clientID, redirectURI string) bool {
	cu, err := url.Parse(clientID)
	if err != nil {
		return false
	}
	ru, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}
	if cu.Scheme == ru.Scheme && cu.Host == ru.Host {
		return true
	}

	meta := r.Resolve(ctx, clientID)
	if meta == nil {
		return false
	}
	for _, candidate := range meta.RedirectURIs {
		if candidate == redirectURI {
			return true
		}
	}
	return false
}

func (r *Resolver) discover(ctx context.Context, clientURL string, log *zap.Logger) *ClientMetadata {
	base, err := url.Parse(clientURL)
	if err != nil || base.Host == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, clientURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.1")

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warn("could not fetch client data", logger.Err(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("could not fetch client data", logger.Status(resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		log.Warn("could not read client data", logger.Err(err))
		return nil
	}

	meta := &ClientMetadata{}

	// Link: <...>; rel="redirect_uri" headers count toward the
	// whitelist regardless of document type.
	if l, ok := link.ParseResponse(resp)["redirect_uri"]; ok {
		if u := resolveURL(base, l.URI); u != "" {
			meta.RedirectURIs = append(meta.RedirectURIs, u)
		}
	}

	if isJSONResponse(resp) {
		r.fromJSONDocument(base, body, meta)
	} else {
		r.fromHTMLDocument(base, body, meta)
	}

	meta.Name = strings.TrimSpace(meta.Name)

	if meta.Icon != "" && r.thumbs != nil {
		if local := r.thumbs.CacheThumbnail(ctx, meta.Icon); local != "" {
			meta.Icon = local
		}
		// A failed thumbnail keeps the validated remote URL.
	}

	return meta
}

// fromJSONDocument reads the client-metadata-document convention.
func (r *Resolver) fromJSONDocument(base *url.URL, body []byte, meta *ClientMetadata) {
	var doc clientMetadataDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return
	}
	meta.Name = doc.ClientName
	if doc.LogoURI != "" {
		meta.Icon = resolveURL(base, doc.LogoURI)
	}
	for _, u := range doc.RedirectURIs {
		if abs := resolveURL(base, u); abs != "" {
			meta.RedirectURIs = append(meta.RedirectURIs, abs)
		}
	}
}

// fromHTMLDocument applies the markup extraction precedence: h-app name
// and logo, then <title>, then rel=icon.
func (r *Resolver) fromHTMLDocument(base *url.URL, body []byte, meta *ClientMetadata) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return
	}

	name, logo := findHApp(root)
	meta.Name = name
	if logo != "" {
		meta.Icon = resolveURL(base, logo)
	}

	if meta.Name == "" {
		meta.Name = findTitle(root)
	}
	if meta.Icon == "" {
		if href := findIconLink(root); href != "" {
			meta.Icon = resolveURL(base, href)
		}
	}

	for _, u := range findRedirectURIs(root) {
		if abs := resolveURL(base, u); abs != "" {
			meta.RedirectURIs = append(meta.RedirectURIs, abs)
		}
	}
}

func isJSONResponse(resp *http.Response) bool {
	ct := resp.Header.Get("Content-Type")
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
