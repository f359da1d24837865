package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrInvalidOptions is returned when the raster cannot hold the margin.
var ErrInvalidOptions = errors.New("qr width must exceed twice the margin")

// Options fix the QR raster. The palette is always black on white and the
// recovery level is not exposed.
type Options struct {
	// Width is the side of the square raster in pixels.
	Width int

	// Margin is the white border in pixels.
	Margin int
}

// DefaultOptions are used by the feeder unless configured otherwise.
var DefaultOptions = Options{Width: 300, Margin: 8}

// Encoder renders URLs with fixed options. It satisfies port.QREncoder.
type Encoder struct {
	opts Options
}

// NewEncoder validates opts and returns an Encoder.
func NewEncoder(opts Options) (*Encoder, error) {
	if opts.Width <= 2*opts.Margin || opts.Margin < 0 {
		return nil, ErrInvalidOptions
	}
	return &Encoder{opts: opts}, nil
}

// EncodeImage renders url as an opaque black-on-white image of Width × Width pixels.
func (e *Encoder) EncodeImage(url string) (image.Image, error) {
	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.DisableBorder = true
	code.ForegroundColor = color.Black
	code.BackgroundColor = color.White

	inner := e.opts.Width - 2*e.opts.Margin
	modules := code.Image(inner)

	// go-qrcode grows the image to one pixel per module when inner is too small.
	canvas := imaging.New(e.opts.Width, e.opts.Width, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	offset := e.opts.Margin + (inner-modules.Bounds().Dx())/2
	r := image.Rect(offset, offset, offset+modules.Bounds().Dx(), offset+modules.Bounds().Dy())
	draw.Draw(canvas, r, modules, modules.Bounds().Min, draw.Src)
	return canvas, nil
}

// EncodePNG renders url as PNG bytes. Identical input yields identical bytes.
func (e *Encoder) EncodePNG(url string) ([]byte, error) {
	img, err := e.EncodeImage(url)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}
