package qr

import (
	"bytes"
	"crypto/tls"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProductURL(t *testing.T) {
	assert.Equal(t, "https://stonecatalog.in/product/abc123", BuildProductURL("https://stonecatalog.in", "abc123"))
	assert.Equal(t, "https://stonecatalog.in/product/abc123", BuildProductURL("https://stonecatalog.in/", "abc123"))
	assert.Equal(t, "http://localhost:3000/product/a%2Fb", BuildProductURL("http://localhost:3000", "a/b"))
}

func TestResolveOrigin(t *testing.T) {
	const fallback = "https://stonecatalog.in/"

	assert.Equal(t, "https://stonecatalog.in", ResolveOrigin(nil, fallback))

	r := httptest.NewRequest(http.MethodGet, "/feeder/products/1/qr", nil)
	r.Host = "admin.local:8080"
	assert.Equal(t, "http://admin.local:8080", ResolveOrigin(r, fallback))

	r.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https://admin.local:8080", ResolveOrigin(r, fallback))

	r.Header.Set("X-Forwarded-Host", "feeder.stonecatalog.in, proxy.internal")
	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://feeder.stonecatalog.in", ResolveOrigin(r, fallback))

	r.Header.Set("Origin", "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", ResolveOrigin(r, fallback))

	noHost := &http.Request{Header: http.Header{}}
	assert.Equal(t, "https://stonecatalog.in", ResolveOrigin(noHost, fallback))
}

func TestEncoder_Deterministic(t *testing.T) {
	enc, err := NewEncoder(DefaultOptions)
	require.NoError(t, err)

	url := BuildProductURL("https://stonecatalog.in", "abc123")
	first, err := enc.EncodePNG(url)
	require.NoError(t, err)
	second, err := enc.EncodePNG(url)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	other, err := enc.EncodePNG(BuildProductURL("https://stonecatalog.in", "abc124"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestEncoder_RasterShape(t *testing.T) {
	enc, err := NewEncoder(Options{Width: 256, Margin: 16})
	require.NoError(t, err)

	data, err := enc.EncodePNG("https://stonecatalog.in/product/abc123")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())

	white := color.NRGBAModel.Convert(color.White)
	assert.Equal(t, white, color.NRGBAModel.Convert(img.At(0, 0)), "margin is white")
	assert.Equal(t, white, color.NRGBAModel.Convert(img.At(255, 255)), "margin is white")

	var dark int
	for y := 16; y < 240; y++ {
		for x := 16; x < 240; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r == 0 && g == 0 && b == 0 {
				dark++
			}
		}
	}
	assert.Positive(t, dark, "code area has black modules")
}

func TestNewEncoder_RejectsOversizedMargin(t *testing.T) {
	_, err := NewEncoder(Options{Width: 20, Margin: 10})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
