package graphics

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// quadrant returns a 2×2 image: red top-left, green top-right, blue bottom-left, white bottom-right.
func quadrant() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, green)
	img.SetNRGBA(0, 1, blue)
	img.SetNRGBA(1, 1, white)
	return img
}

type fakeLoader struct {
	mu     sync.Mutex
	images map[string]image.Image
	calls  []string
}

func (f *fakeLoader) Fetch(ctx context.Context, ref string) (*port.Asset, error) {
	return nil, errors.New("not used")
}

func (f *fakeLoader) Decode(ctx context.Context, ref string) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ref)
	img, ok := f.images[ref]
	if !ok {
		return nil, errors.New("load failed: " + ref)
	}
	return img, nil
}

func TestCompose_FlipsEachTile(t *testing.T) {
	layout := Layout{
		Width:  4,
		Height: 2,
		Tiles: []Tile{
			{OffsetX: 0, OffsetY: 0},
			{OffsetX: 2, OffsetY: 0, FlipX: true, FlipY: true},
		},
	}

	out := Compose(quadrant(), layout)

	require.Equal(t, image.Rect(0, 0, 4, 2), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(0, 0))
	assert.Equal(t, white, out.NRGBAAt(1, 1))
	// rotated copy: white top-left, red bottom-right
	assert.Equal(t, white, out.NRGBAAt(2, 0))
	assert.Equal(t, blue, out.NRGBAAt(3, 0))
	assert.Equal(t, green, out.NRGBAAt(2, 1))
	assert.Equal(t, red, out.NRGBAAt(3, 1))
}

func TestCompose_EmptyLayoutIsTransparent(t *testing.T) {
	out := Compose(quadrant(), Layout{Width: 3, Height: 3})
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(1, 1))
}

func TestPlanBookmatch_KnownSize(t *testing.T) {
	strategy, layout := PlanBookmatch(488, 488, DefaultBookmatchConfig)

	assert.Equal(t, StrategyMirror2x2, strategy)
	assert.Equal(t, 976, layout.Width)
	assert.Equal(t, 976, layout.Height)
	assert.Equal(t, []Tile{
		{OffsetX: 0, OffsetY: 0},
		{OffsetX: 488, OffsetY: 0, FlipX: true},
		{OffsetX: 0, OffsetY: 488, FlipY: true},
		{OffsetX: 488, OffsetY: 488, FlipX: true, FlipY: true},
	}, layout.Tiles)

	strategy, _ = PlanBookmatch(646, 646, DefaultBookmatchConfig)
	assert.Equal(t, StrategyMirror2x2, strategy)
}

func TestPlanBookmatch_NearSquareUsesParityGrid(t *testing.T) {
	strategy, layout := PlanBookmatch(500, 490, DefaultBookmatchConfig)

	assert.Equal(t, StrategyAlternatingSquare, strategy)
	assert.Equal(t, 2000, layout.Width)
	assert.Equal(t, 1960, layout.Height)
	require.Len(t, layout.Tiles, 16)

	for i, tile := range layout.Tiles {
		row, col := i/4, i%4
		assert.Equal(t, col*500, tile.OffsetX)
		assert.Equal(t, row*490, tile.OffsetY)
		assert.Equal(t, col%2 == 1, tile.FlipX, "cell %d,%d", row, col)
		assert.Equal(t, row%2 == 1, tile.FlipY, "cell %d,%d", row, col)
	}
}

func TestPlanBookmatch_NonSquare(t *testing.T) {
	strategy, layout := PlanBookmatch(1200, 600, DefaultBookmatchConfig)

	assert.Equal(t, StrategyAlternating, strategy)
	assert.Equal(t, 4800, layout.Width)
	assert.Equal(t, 2400, layout.Height)
	assert.True(t, layout.Tiles[5].FlipX)
	assert.True(t, layout.Tiles[5].FlipY)
}

func TestPlanBookmatch_KnownSizesAreConfiguration(t *testing.T) {
	cfg := BookmatchConfig{KnownSizes: []Size{{2, 2}}, SquareTolerance: 0.05}

	strategy, _ := PlanBookmatch(2, 2, cfg)
	assert.Equal(t, StrategyMirror2x2, strategy)

	strategy, _ = PlanBookmatch(488, 488, cfg)
	assert.Equal(t, StrategyAlternatingSquare, strategy)
}

func TestBookmatcher_ComposesTexture(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{"slab.jpg": quadrant()}}
	cfg := BookmatchConfig{KnownSizes: []Size{{2, 2}}, TileSize: 400}
	b := NewBookmatcher(loader, cfg, logging.Nop())

	tex := b.Texture(context.Background(), "slab.jpg")

	assert.False(t, tex.Fallback)
	assert.Equal(t, StrategyMirror2x2, tex.Strategy)
	assert.Equal(t, 400, tex.TileSize)
	require.True(t, strings.HasPrefix(tex.URL, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(tex.URL, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := imaging.Decode(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
}

func TestBookmatcher_FallsBackToOriginalURL(t *testing.T) {
	loader := &fakeLoader{images: map[string]image.Image{}}
	b := NewBookmatcher(loader, DefaultBookmatchConfig, logging.Nop())

	tex := b.Texture(context.Background(), "https://cdn.example.com/slab.jpg")

	assert.True(t, tex.Fallback)
	assert.Equal(t, "https://cdn.example.com/slab.jpg", tex.URL)
	assert.Equal(t, 400, tex.TileSize)
	assert.Nil(t, tex.Image)
}

func TestEncodeDataURL_PNG(t *testing.T) {
	url, err := EncodeDataURL(quadrant(), FormatPNG)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestMockupRenderer_JoinsAllLoadsInOrder(t *testing.T) {
	room := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	room.SetNRGBA(0, 0, red) // opaque wall pixel, rest is transparent floor
	loader := &fakeLoader{images: map[string]image.Image{
		"kitchen.png": room,
		"bath.png":    room,
	}}
	mockups := []Mockup{
		{Name: "Kitchen", URL: "kitchen.png"},
		{Name: "Lobby", URL: "lobby.png"},
		{Name: "Bath", URL: "bath.png"},
	}
	r := NewMockupRenderer(loader, mockups, 2, logging.Nop())

	previews := r.Render(context.Background(), quadrant())

	require.Len(t, previews, 3)
	assert.Equal(t, "Kitchen", previews[0].Name)
	assert.Equal(t, "Lobby", previews[1].Name)
	assert.Equal(t, "Bath", previews[2].Name)
	assert.True(t, previews[1].Placeholder)
	assert.Len(t, loader.calls, 3)

	kitchen := previews[0].Image.(*image.NRGBA)
	assert.Equal(t, red, kitchen.NRGBAAt(0, 0), "room pixel drawn over the texture")
	assert.Equal(t, blue, kitchen.NRGBAAt(2, 3), "texture repeats every tile")
}

func TestUnderlay_NilTextureIsGrey(t *testing.T) {
	room := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	out := Underlay(room, nil, 10)
	assert.Equal(t, PlaceholderColor, out.NRGBAAt(1, 1))
}
