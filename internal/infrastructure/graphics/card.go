package graphics

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// CardLayout positions the elements of a printable QR card, in pixels.
type CardLayout struct {
	Width  int
	Height int

	QRX    int
	QRY    int
	QRSize int

	// TextY is the baseline of the first name line; lines are centred horizontally.
	TextY        int
	MaxTextWidth int
	LineHeight   int
	FontSize     float64
	MaxLines     int
}

// DefaultCardLayout is a 600×900 card with a 400px code.
var DefaultCardLayout = CardLayout{
	Width:        600,
	Height:       900,
	QRX:          100,
	QRY:          160,
	QRSize:       400,
	TextY:        640,
	MaxTextWidth: 500,
	LineHeight:   40,
	FontSize:     30,
	MaxLines:     3,
}

// CardComposer draws QR cards. It is safe for concurrent use.
type CardComposer struct {
	layout CardLayout
	font   *opentype.Font
}

// NewCardComposer parses the Go Regular font and returns a composer for layout.
func NewCardComposer(layout CardLayout) (*CardComposer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse card font: %w", err)
	}
	return &CardComposer{layout: layout, font: f}, nil
}

// Layout returns the card layout.
func (c *CardComposer) Layout() CardLayout {
	return c.layout
}

// Compose flattens the template, the QR raster and the wrapped product name
// into one card. A nil template yields a plain white card.
func (c *CardComposer) Compose(template, code image.Image, name string) (image.Image, error) {
	l := c.layout

	// Faces keep per-glyph scratch state, so each card gets its own.
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    l.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create card font face: %w", err)
	}
	defer face.Close()

	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(color.White)
	dc.Clear()

	if template != nil {
		if b := template.Bounds(); b.Dx() != l.Width || b.Dy() != l.Height {
			template = imaging.Resize(template, l.Width, l.Height, imaging.Lanczos)
		}
		dc.DrawImage(template, 0, 0)
	}

	if code != nil {
		if b := code.Bounds(); b.Dx() != l.QRSize || b.Dy() != l.QRSize {
			code = imaging.Resize(code, l.QRSize, l.QRSize, imaging.NearestNeighbor)
		}
		dc.DrawImage(code, l.QRX, l.QRY)
	}

	dc.SetFontFace(face)
	dc.SetColor(color.Black)
	lines := WrapText(name, float64(l.MaxTextWidth), l.MaxLines, func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	})
	for i, line := range lines {
		y := float64(l.TextY + i*l.LineHeight)
		dc.DrawStringAnchored(line, float64(l.Width)/2, y, 0.5, 0)
	}

	return dc.Image(), nil
}
