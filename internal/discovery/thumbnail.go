package discovery

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/janboddez/indieauth/internal/metrics"
	"github.com/janboddez/indieauth/internal/objstore"
	"github.com/janboddez/indieauth/internal/observability/logger"
	tokens "github.com/janboddez/indieauth/internal/security/token"
)

const (
	thumbnailRoot   = "indieauth-clients"
	thumbnailMaxAge = 30 * 24 * time.Hour
	maxImageBytes   = 5 << 20
)

// DefaultThumbnailSize is the square crop applied to client icons.
const DefaultThumbnailSize = 150

var extByContentType = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/x-icon":  ".ico",
	"image/svg+xml": ".svg",
}

// Thumbnailer caches cropped client icons in the object store.
type Thumbnailer struct {
	store  objstore.Store
	client *http.Client
	size   int

	// now is swappable in tests.
	now func() time.Time
}

func NewThumbnailer(store objstore.Store, client *http.Client, size int) *Thumbnailer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	return &Thumbnailer{
		store:  store,
		client: client,
		size:   size,
		now:    time.Now,
	}
}

// CacheThumbnail returns the public URL of a cached square thumbnail for
// imageURL, fetching and cropping it when the cache has no copy younger
// than 30 days. Any failure returns "" and is only logged.
func (t *Thumbnailer) CacheThumbnail(ctx context.Context, imageURL string) string {
	log := logger.From(ctx).With(logger.Component("discovery.thumbnail"), logger.URL(imageURL))

	hash := tokens.SHA256Hex(imageURL)
	prefix := thumbnailRoot + "/" + hash[0:2] + "/" + hash[2:4] + "/" + hash

	// Any extension counts; freshness is what matters.
	if infos, err := t.store.List(ctx, prefix); err == nil && len(infos) > 0 {
		newest := infos[0]
		for _, info := range infos[1:] {
			if info.ModTime.After(newest.ModTime) {
				newest = info
			}
		}
		if t.now().Sub(newest.ModTime) < thumbnailMaxAge {
			metrics.ThumbnailLookups.WithLabelValues("fresh").Inc()
			return t.store.URL(newest.Path)
		}
	}

	data, err := t.fetch(ctx, imageURL)
	if err != nil {
		log.Warn("could not fetch client icon", logger.Err(err))
		metrics.ThumbnailLookups.WithLabelValues("failed").Inc()
		return ""
	}
	if len(data) == 0 {
		metrics.ThumbnailLookups.WithLabelValues("failed").Inc()
		return ""
	}

	processed, err := t.process(data)
	if err != nil {
		log.Warn("could not process client icon", logger.Err(err))
		metrics.ThumbnailLookups.WithLabelValues("failed").Inc()
		return ""
	}

	if err := t.store.Put(ctx, prefix, processed, http.DetectContentType(processed)); err != nil {
		log.Error("could not store thumbnail", logger.Err(err))
		metrics.ThumbnailLookups.WithLabelValues("failed").Inc()
		return ""
	}

	// Rename to append a sniffed extension; inconclusive sniffs keep the
	// extensionless path.
	final := prefix
	if ext, ok := extByContentType[http.DetectContentType(processed)]; ok {
		withExt := prefix + ext
		if err := t.store.Move(ctx, prefix, withExt); err == nil {
			final = withExt
		} else {
			log.Error("could not rename thumbnail", logger.Err(err))
		}
	}

	metrics.ThumbnailLookups.WithLabelValues("fetched").Inc()
	return t.store.URL(final)
}

func (t *Thumbnailer) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{status: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// process decodes the image and crops it to a centered square of the
// configured size, re-encoding in the source format.
func (t *Thumbnailer) process(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	cropped := imaging.Fill(img, t.size, t.size, imaging.Center, imaging.Lanczos)

	encFormat := imaging.PNG
	switch format {
	case "jpeg":
		encFormat = imaging.JPEG
	case "gif":
		encFormat = imaging.GIF
	case "bmp":
		encFormat = imaging.BMP
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, encFormat); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type httpStatusError struct{ status int }

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}
