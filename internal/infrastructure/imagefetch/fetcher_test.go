package imagefetch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hapkiduki/stone-feeder/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetcher_DecodeHTTP(t *testing.T) {
	data := pngBytes(t, 3, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	f := New(logging.Nop())
	img, err := f.Decode(context.Background(), srv.URL+"/slab.png")

	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestFetcher_SniffsMissingContentType(t *testing.T) {
	data := pngBytes(t, 1, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(data)
	}))
	defer srv.Close()

	asset, err := New(logging.Nop()).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.ContentType)
}

func TestFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		case "/big":
			w.Header().Set("Content-Type", "image/png")
			w.Write(make([]byte, 64))
		}
	}))
	defer srv.Close()

	f := New(logging.Nop(), WithMaxBytes(32))
	ctx := context.Background()

	_, err := f.Fetch(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrStatus)

	_, err = f.Fetch(ctx, srv.URL+"/html")
	assert.ErrorIs(t, err, ErrUnexpectedType)

	_, err = f.Fetch(ctx, srv.URL+"/big")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Fetch(ctx, "  ")
	assert.ErrorIs(t, err, ErrEmptyReference)
}

func TestFetcher_DecodeRejectsCorruptImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("not really a jpeg"))
	}))
	defer srv.Close()

	_, err := New(logging.Nop()).Decode(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetcher_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 4), 0o644))
	missing := filepath.Join(t.TempDir(), "nope.png")

	f := New(logging.Nop(), WithLocalFiles(path, missing))

	img, err := f.Decode(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = f.Fetch(context.Background(), missing)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAllowed)
}

func TestFetcher_RefusesUnregisteredLocalFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 2, 2), 0o644))

	f := New(logging.Nop())

	for _, ref := range []string{path, "file://" + path, "uploads/x.jpg"} {
		_, err := f.Fetch(context.Background(), ref)
		assert.ErrorIs(t, err, ErrNotAllowed, ref)
	}
}

func TestFetcher_ResolvesRelativeReferences(t *testing.T) {
	data := pngBytes(t, 5, 3)
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	// The file exists on disk but is not a registered asset, so the
	// backend is asked for it.
	local := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(local, pngBytes(t, 1, 1), 0o644))

	f := New(logging.Nop(), WithBaseURL(srv.URL+"/"))

	img, err := f.Decode(context.Background(), "/uploads/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())

	_, err = f.Fetch(context.Background(), local)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "file://"+local)
	assert.ErrorIs(t, err, ErrNotAllowed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/uploads/x.jpg", local}, paths)
}
