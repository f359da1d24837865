// Package imagefetch loads remote and local images for the compositor and the image proxy.
package imagefetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/hapkiduki/stone-feeder/internal/application/port"
)

// Fetch errors.
var (
	ErrEmptyReference = errors.New("image reference is empty")
	ErrUnexpectedType = errors.New("response is not an image")
	ErrTooLarge       = errors.New("image exceeds size limit")
	ErrStatus         = errors.New("unexpected response status")
	ErrNotAllowed     = errors.New("image reference is not a URL or a configured local asset")
)

// Fetcher retrieves images over HTTP(S), or from the local filesystem for
// the assets registered with WithLocalFiles. Relative references are resolved
// against the base URL. It applies no timeout of its own; the caller's
// context bounds every call.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	baseURL  *url.URL
	local    map[string]bool
	log      port.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithMaxBytes caps the number of bytes read per image. Zero means unlimited.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

// WithBaseURL resolves relative references such as "/uploads/x.jpg" against
// base, the host that serves product images.
func WithBaseURL(base string) Option {
	return func(f *Fetcher) {
		if u, err := url.Parse(strings.TrimSpace(base)); err == nil && u.IsAbs() {
			f.baseURL = u
		}
	}
}

// WithLocalFiles allows refs to be read from disk. Each ref may be a path or
// a file:// URL; any other local path is refused.
func WithLocalFiles(refs ...string) Option {
	return func(f *Fetcher) {
		for _, ref := range refs {
			if ref = strings.TrimSpace(ref); ref != "" && !isHTTP(ref) {
				f.local[localPath(ref)] = true
			}
		}
	}
}

// New creates a Fetcher.
func New(log port.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{},
		local:  make(map[string]bool),
		log:    log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the raw bytes of the image at ref.
//
// Parameters:
//   - ctx: context for cancellation
//   - ref: http(s) URL, reference relative to the base URL, or a registered local asset
//
// Returns:
//   - *port.Asset: bytes and content type
//   - error: transport, status, size or content-type failure, or ErrNotAllowed
func (f *Fetcher) Fetch(ctx context.Context, ref string) (*port.Asset, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, ErrEmptyReference
	case isHTTP(ref):
		return f.fetchHTTP(ctx, ref)
	case f.local[localPath(ref)]:
		return f.readFile(localPath(ref))
	}

	if f.baseURL != nil && !strings.HasPrefix(ref, "file:") {
		rel, err := url.Parse(ref)
		if err == nil && rel.Scheme == "" {
			return f.fetchHTTP(ctx, f.baseURL.ResolveReference(rel).String())
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotAllowed, ref)
}

func isHTTP(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func localPath(ref string) string {
	return filepath.Clean(strings.TrimPrefix(ref, "file://"))
}

// Decode fetches and decodes the image at ref, applying EXIF orientation.
func (f *Fetcher) Decode(ctx context.Context, ref string) (image.Image, error) {
	asset, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(asset.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return img, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) (*port.Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %w: %d", rawURL, ErrStatus, resp.StatusCode)
	}

	data, err := f.readAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("fetch %s: %w: %s", rawURL, ErrUnexpectedType, contentType)
	}

	f.log.Debug("Image fetched", "url", rawURL, "bytes", len(data), "content_type", contentType)
	return &port.Asset{Data: data, ContentType: contentType}, nil
}

func (f *Fetcher) readFile(path string) (*port.Asset, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	data, err := f.readAll(fp)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("read %s: %w: %s", path, ErrUnexpectedType, contentType)
	}
	return &port.Asset{Data: data, ContentType: contentType}, nil
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
