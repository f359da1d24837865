// Package bootstrap assembles the feeder's services from configuration.
// Both the HTTP service and the qrcards CLI start here.
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/hapkiduki/stone-feeder/internal/application/service"
	"github.com/hapkiduki/stone-feeder/internal/domain/valueobject"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/config"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/graphics"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/imagefetch"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/persistance/restapi"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/qr"
)

// Services are the assembled use cases.
type Services struct {
	Catalog *service.CatalogService
	Media   *service.MediaService
}

// Build wires the backend client, image loader, encoders and compositors.
// httpClient may be nil.
func Build(cfg *config.Config, httpClient *http.Client, log port.Logger) (*Services, error) {
	currency, err := valueobject.ParseCurrency(cfg.App.Currency)
	if err != nil {
		return nil, fmt.Errorf("app.currency: %w", err)
	}

	client := restapi.NewClient(cfg.Backend.BaseURL, httpClient, log.With("component", "restapi"))
	products := restapi.NewProductRepository(client)

	fetchOpts := []imagefetch.Option{
		imagefetch.WithMaxBytes(cfg.Proxy.MaxBytes),
		imagefetch.WithBaseURL(cfg.Backend.BaseURL),
		imagefetch.WithLocalFiles(LocalAssets(cfg)...),
	}
	if httpClient != nil {
		fetchOpts = append(fetchOpts, imagefetch.WithHTTPClient(httpClient))
	}
	loader := imagefetch.New(log.With("component", "imagefetch"), fetchOpts...)

	encoder, err := qr.NewEncoder(qr.Options{Width: cfg.QR.Width, Margin: cfg.QR.Margin})
	if err != nil {
		return nil, err
	}

	cards, err := graphics.NewCardComposer(CardLayout(cfg.Card))
	if err != nil {
		return nil, err
	}

	gfxLog := log.With("component", "graphics")
	bookmatch := BookmatchConfig(cfg.Bookmatch)

	mockups := make([]graphics.Mockup, 0, len(cfg.Mockups))
	for _, m := range cfg.Mockups {
		mockups = append(mockups, graphics.Mockup{Name: m.Name, URL: m.URL})
	}

	return &Services{
		Catalog: service.NewCatalogService(products, currency, log.With("component", "catalog")),
		Media: service.NewMediaService(service.MediaConfig{
			Products:        products,
			Loader:          loader,
			QR:              encoder,
			Cards:           cards,
			Bookmatcher:     graphics.NewBookmatcher(loader, bookmatch, gfxLog),
			Mockups:         graphics.NewMockupRenderer(loader, mockups, bookmatch.TileSize, gfxLog),
			CardTemplateURL: cfg.Card.TemplateURL,
			PlaceholderURL:  cfg.Proxy.PlaceholderURL,
			PlaceholderSize: bookmatch.TileSize,
			Log:             log.With("component", "media"),
		}),
	}, nil
}

// LocalAssets lists the configured images that may be read from disk: the
// card template, the room mockups and the proxy placeholder. Product images
// never come from the feeder's own filesystem.
func LocalAssets(cfg *config.Config) []string {
	refs := []string{cfg.Card.TemplateURL, cfg.Proxy.PlaceholderURL}
	for _, m := range cfg.Mockups {
		refs = append(refs, m.URL)
	}
	return refs
}

// CardLayout converts the card configuration.
func CardLayout(c config.CardConfig) graphics.CardLayout {
	return graphics.CardLayout{
		Width:        c.Width,
		Height:       c.Height,
		QRX:          c.QRX,
		QRY:          c.QRY,
		QRSize:       c.QRSize,
		TextY:        c.TextY,
		MaxTextWidth: c.MaxTextWidth,
		LineHeight:   c.LineHeight,
		FontSize:     c.FontSize,
		MaxLines:     c.MaxLines,
	}
}

// BookmatchConfig converts the bookmatch configuration.
func BookmatchConfig(c config.BookmatchConfig) graphics.BookmatchConfig {
	sizes := make([]graphics.Size, 0, len(c.KnownSizes))
	for _, s := range c.KnownSizes {
		sizes = append(sizes, graphics.Size{Width: s.Width, Height: s.Height})
	}
	return graphics.BookmatchConfig{
		KnownSizes:      sizes,
		SquareTolerance: c.SquareTolerance,
		TileSize:        c.TileSize,
	}
}
