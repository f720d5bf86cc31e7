package discovery

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janboddez/indieauth/internal/objstore/disk"
	tokens "github.com/janboddez/indieauth/internal/security/token"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCacheThumbnailFetchCropStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(testPNG(t, 400, 200))
	}))
	defer srv.Close()

	store := disk.New(t.TempDir(), "https://media.example")
	th := NewThumbnailer(store, srv.Client(), 150)
	ctx := context.Background()

	imageURL := srv.URL + "/logo.png"
	got := th.CacheThumbnail(ctx, imageURL)
	require.NotEmpty(t, got)

	hash := tokens.SHA256Hex(imageURL)
	wantPath := "indieauth-clients/" + hash[0:2] + "/" + hash[2:4] + "/" + hash + ".png"
	assert.Equal(t, "https://media.example/"+wantPath, got)

	// The stored object decodes to a 150x150 square.
	infos, err := store.List(ctx, "indieauth-clients/"+hash[0:2]+"/"+hash[2:4]+"/"+hash)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.True(t, strings.HasSuffix(infos[0].Path, ".png"))
}

func TestCacheThumbnailFreshHitSkipsFetch(t *testing.T) {
	var fetches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Header().Set("Content-Type", "image/png")
		w.Write(testPNG(t, 64, 64))
	}))
	defer srv.Close()

	store := disk.New(t.TempDir(), "https://media.example")
	th := NewThumbnailer(store, srv.Client(), 150)
	ctx := context.Background()

	imageURL := srv.URL + "/icon.png"
	first := th.CacheThumbnail(ctx, imageURL)
	require.NotEmpty(t, first)
	require.Equal(t, 1, fetches)

	// Pretend the cached file is 10 days old: still fresh.
	th.now = func() time.Time { return time.Now().Add(10 * 24 * time.Hour) }
	second := th.CacheThumbnail(ctx, imageURL)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetches, "fresh thumbnails skip the network")

	// Past 30 days it is refetched.
	th.now = func() time.Time { return time.Now().Add(40 * 24 * time.Hour) }
	third := th.CacheThumbnail(ctx, imageURL)
	assert.Equal(t, first, third)
	assert.Equal(t, 2, fetches)
}

func TestCacheThumbnailFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	th := NewThumbnailer(disk.New(t.TempDir(), "https://media.example"), srv.Client(), 150)
	assert.Empty(t, th.CacheThumbnail(context.Background(), srv.URL+"/gone.png"))
}

func TestCacheThumbnailEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	defer srv.Close()

	th := NewThumbnailer(disk.New(t.TempDir(), "https://media.example"), srv.Client(), 150)
	assert.Empty(t, th.CacheThumbnail(context.Background(), srv.URL+"/empty.png"))
}

func TestCacheThumbnailUndecodableImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not an image"))
	}))
	defer srv.Close()

	th := NewThumbnailer(disk.New(t.TempDir(), "https://media.example"), srv.Client(), 150)
	assert.Empty(t, th.CacheThumbnail(context.Background(), srv.URL+"/nope.svg"))
}
