package graphics

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/sourcegraph/conc/pool"
)

// PlaceholderColor fills placeholder graphics.
var PlaceholderColor = color.NRGBA{R: 0xd9, G: 0xd9, B: 0xd9, A: 0xff}

// Placeholder returns a flat grey w × h image.
func Placeholder(w, h int) *image.NRGBA {
	return imaging.New(w, h, PlaceholderColor)
}

// Mockup is a room photo whose floor or wall is transparent.
type Mockup struct {
	Name string
	URL  string
}

// MockupPreview is a mockup with a texture showing through its transparent surface.
type MockupPreview struct {
	Name  string
	Image image.Image

	// Placeholder reports that the room photo failed to load.
	Placeholder bool
}

// MockupRenderer renders a texture into every configured room mockup.
type MockupRenderer struct {
	loader      port.ImageLoader
	mockups     []Mockup
	tileSize    int
	maxParallel int
	log         port.Logger
}

// NewMockupRenderer creates a renderer. tileSize is the edge of one repeat of the texture.
func NewMockupRenderer(loader port.ImageLoader, mockups []Mockup, tileSize int, log port.Logger) *MockupRenderer {
	return &MockupRenderer{
		loader:      loader,
		mockups:     mockups,
		tileSize:    tileSize,
		maxParallel: 4,
		log:         log,
	}
}

// Mockups returns the configured mockups.
func (m *MockupRenderer) Mockups() []Mockup {
	return m.mockups
}

type loadedMockup struct {
	index int
	img   image.Image
	err   error
}

// load fetches every room photo in parallel and returns once all have
// completed, in configuration order. A photo that failed has a nil image and
// its error set.
func (m *MockupRenderer) load(ctx context.Context) []loadedMockup {
	p := pool.NewWithResults[loadedMockup]().WithMaxGoroutines(m.maxParallel)
	for i, mk := range m.mockups {
		p.Go(func() loadedMockup {
			img, err := m.loader.Decode(ctx, mk.URL)
			return loadedMockup{index: i, img: img, err: err}
		})
	}

	out := make([]loadedMockup, len(m.mockups))
	for _, res := range p.Wait() {
		out[res.index] = res
	}
	return out
}

// Render loads every mockup and draws texture beneath each one. A room
// photo that fails to load is replaced with a placeholder preview.
func (m *MockupRenderer) Render(ctx context.Context, texture image.Image) []MockupPreview {
	loaded := m.load(ctx)

	previews := make([]MockupPreview, 0, len(loaded))
	for i, res := range loaded {
		mk := m.mockups[i]
		if res.err != nil {
			m.log.WithContext(ctx).Warn("Mockup failed to load, using placeholder",
				"mockup", mk.Name, "url", mk.URL, "error", res.err)
			previews = append(previews, MockupPreview{
				Name:        mk.Name,
				Image:       Placeholder(m.tileSize, m.tileSize),
				Placeholder: true,
			})
			continue
		}
		previews = append(previews, MockupPreview{
			Name:  mk.Name,
			Image: Underlay(res.img, texture, m.tileSize),
		})
	}
	return previews
}

// Underlay repeats texture across the bounds of room, scaled so one repeat is
// tileSize pixels wide, then draws room on top. A nil texture shows as grey.
func Underlay(room, texture image.Image, tileSize int) *image.NRGBA {
	b := room.Bounds()
	canvas := Placeholder(b.Dx(), b.Dy())

	if texture != nil && tileSize > 0 {
		tile := imaging.Resize(texture, tileSize, 0, imaging.Lanczos)
		tw, th := tile.Bounds().Dx(), tile.Bounds().Dy()
		for y := 0; y < b.Dy(); y += th {
			for x := 0; x < b.Dx(); x += tw {
				draw.Draw(canvas, image.Rect(x, y, x+tw, y+th), tile, image.Point{}, draw.Src)
			}
		}
	}

	return imaging.Overlay(canvas, room, image.Point{}, 1.0)
}
