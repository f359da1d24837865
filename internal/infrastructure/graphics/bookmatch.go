package graphics

import (
	"context"
	"image"
	"math"

	"github.com/hapkiduki/stone-feeder/internal/application/port"
)

// Strategy names the tiling used for a bookmatched texture.
type Strategy string

// Tiling strategies.
const (
	// StrategyMirror2x2 mirrors the source into a 2×2 grid. Used for known photo sizes.
	StrategyMirror2x2 Strategy = "mirror-2x2"

	// StrategyAlternatingSquare is a 4×4 grid of alternating flips for near-square photos.
	StrategyAlternatingSquare Strategy = "alternating-4x4-square"

	// StrategyAlternating is a 4×4 grid of alternating flips for any other photo.
	StrategyAlternating Strategy = "alternating-4x4"
)

// Size is a width × height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// BookmatchConfig tunes strategy selection.
type BookmatchConfig struct {
	// KnownSizes are exact source sizes that get the 2×2 mirror layout.
	KnownSizes []Size

	// SquareTolerance is the allowed |w/h - 1| for a photo to count as near-square.
	SquareTolerance float64

	// TileSize is the CSS background tile size reported with every texture.
	// It is a display approximation and is not derived from the canvas.
	TileSize int
}

// DefaultBookmatchConfig matches the catalog photo sizes in use.
var DefaultBookmatchConfig = BookmatchConfig{
	KnownSizes:      []Size{{488, 488}, {646, 646}},
	SquareTolerance: 0.05,
	TileSize:        400,
}

// PlanBookmatch picks a strategy for a w × h source and lays out its tiles.
func PlanBookmatch(w, h int, cfg BookmatchConfig) (Strategy, Layout) {
	for _, s := range cfg.KnownSizes {
		if s.Width == w && s.Height == h {
			return StrategyMirror2x2, mirror2x2(w, h)
		}
	}

	if h > 0 && math.Abs(float64(w)/float64(h)-1) <= cfg.SquareTolerance {
		return StrategyAlternatingSquare, alternatingGrid(w, h, 4)
	}
	return StrategyAlternating, alternatingGrid(w, h, 4)
}

func mirror2x2(w, h int) Layout {
	return Layout{
		Width:  2 * w,
		Height: 2 * h,
		Tiles: []Tile{
			{OffsetX: 0, OffsetY: 0},
			{OffsetX: w, OffsetY: 0, FlipX: true},
			{OffsetX: 0, OffsetY: h, FlipY: true},
			{OffsetX: w, OffsetY: h, FlipX: true, FlipY: true},
		},
	}
}

// alternatingGrid flips a cell horizontally on odd columns and vertically on odd rows.
func alternatingGrid(w, h, n int) Layout {
	tiles := make([]Tile, 0, n*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			tiles = append(tiles, Tile{
				OffsetX: col * w,
				OffsetY: row * h,
				FlipX:   col%2 == 1,
				FlipY:   row%2 == 1,
			})
		}
	}
	return Layout{Width: n * w, Height: n * h, Tiles: tiles}
}

// Texture is a bookmatched texture ready for a repeating CSS background.
type Texture struct {
	// URL is a data URL, or the original product image URL on fallback.
	URL string

	// TileSize is the configured background tile size.
	TileSize int

	Strategy Strategy

	// Fallback reports that URL is the unprocessed original image.
	Fallback bool

	// Image is the composed raster; nil on fallback.
	Image image.Image
}

// Bookmatcher turns product photos into bookmatched textures.
type Bookmatcher struct {
	loader port.ImageLoader
	cfg    BookmatchConfig
	log    port.Logger
}

// NewBookmatcher creates a Bookmatcher.
func NewBookmatcher(loader port.ImageLoader, cfg BookmatchConfig, log port.Logger) *Bookmatcher {
	return &Bookmatcher{loader: loader, cfg: cfg, log: log}
}

// Texture builds the texture for imageURL. It never fails: if the photo
// cannot be loaded, decoded or encoded, the original URL is returned as the
// texture with Fallback set.
func (b *Bookmatcher) Texture(ctx context.Context, imageURL string) Texture {
	fallback := Texture{URL: imageURL, TileSize: b.cfg.TileSize, Fallback: true}

	src, err := b.loader.Decode(ctx, imageURL)
	if err != nil {
		b.log.WithContext(ctx).Warn("Bookmatch source failed to load, using original image",
			"url", imageURL, "error", err)
		return fallback
	}

	bounds := src.Bounds()
	strategy, layout := PlanBookmatch(bounds.Dx(), bounds.Dy(), b.cfg)
	composed := Compose(src, layout)

	dataURL, err := EncodeDataURL(composed, FormatJPEG)
	if err != nil {
		b.log.WithContext(ctx).Warn("Bookmatch texture failed to encode, using original image",
			"url", imageURL, "error", err)
		return fallback
	}

	b.log.WithContext(ctx).Debug("Bookmatch texture composed",
		"url", imageURL, "strategy", strategy,
		"canvas_width", layout.Width, "canvas_height", layout.Height)

	return Texture{
		URL:      dataURL,
		TileSize: b.cfg.TileSize,
		Strategy: strategy,
		Image:    composed,
	}
}
