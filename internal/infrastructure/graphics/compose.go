// Package graphics composes rasters for the feeder: bookmatched textures,
// printable QR cards and room mockup previews.
package graphics

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Tile places one copy of the source image on the canvas.
type Tile struct {
	OffsetX int  `json:"offsetX"`
	OffsetY int  `json:"offsetY"`
	FlipX   bool `json:"flipX"`
	FlipY   bool `json:"flipY"`
}

// Layout is the target canvas and where each copy of the source goes.
type Layout struct {
	Width  int    `json:"canvasWidth"`
	Height int    `json:"canvasHeight"`
	Tiles  []Tile `json:"tiles"`
}

// Compose draws src into a transparent canvas once per tile, mirrored as the
// tile asks. Tiles are drawn in order, so later tiles cover earlier ones.
func Compose(src image.Image, layout Layout) *image.NRGBA {
	canvas := imaging.New(layout.Width, layout.Height, color.NRGBA{})
	if src == nil || len(layout.Tiles) == 0 {
		return canvas
	}

	var variants [4]*image.NRGBA
	orient := func(flipX, flipY bool) *image.NRGBA {
		i := 0
		if flipX {
			i |= 1
		}
		if flipY {
			i |= 2
		}
		if variants[i] == nil {
			switch {
			case flipX && flipY:
				variants[i] = imaging.Rotate180(src)
			case flipX:
				variants[i] = imaging.FlipH(src)
			case flipY:
				variants[i] = imaging.FlipV(src)
			default:
				variants[i] = imaging.Clone(src)
			}
		}
		return variants[i]
	}

	for _, t := range layout.Tiles {
		tile := orient(t.FlipX, t.FlipY)
		r := tile.Bounds().Add(image.Pt(t.OffsetX, t.OffsetY))
		draw.Draw(canvas, r, tile, tile.Bounds().Min, draw.Over)
	}
	return canvas
}
