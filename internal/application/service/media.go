package service

import (
	"context"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/domain/repository"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/graphics"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/qr"
)

// MediaConfig wires the media service.
type MediaConfig struct {
	Products    repository.ProductRepository
	Loader      port.ImageLoader
	QR          port.QREncoder
	Cards       *graphics.CardComposer
	Bookmatcher *graphics.Bookmatcher
	Mockups     *graphics.MockupRenderer

	// CardTemplateURL is the card background; empty means a plain white card.
	CardTemplateURL string

	// PlaceholderURL is served by the image proxy when a fetch fails; empty
	// means a generated grey tile.
	PlaceholderURL string

	// PlaceholderSize is the edge of the generated placeholder tile.
	PlaceholderSize int

	Log port.Logger
}

// Card is a rendered printable QR card.
type Card struct {
	PNG      []byte
	FileName string
	URL      string
}

// MockupView is a room preview encoded for the UI.
type MockupView struct {
	Name        string
	DataURL     string
	Placeholder bool
}

// MediaService derives QR codes, cards, textures and mockups from products.
type MediaService struct {
	cfg MediaConfig
	log port.Logger
}

// NewMediaService creates a MediaService.
func NewMediaService(cfg MediaConfig) *MediaService {
	if cfg.PlaceholderSize <= 0 {
		cfg.PlaceholderSize = 400
	}
	return &MediaService{cfg: cfg, log: cfg.Log}
}

// ProductURL is the public product page encoded in the product's QR code.
func (s *MediaService) ProductURL(origin, productID string) string {
	return qr.BuildProductURL(origin, productID)
}

// QRCode renders the QR code PNG for the product's public URL. It needs no
// backend round trip.
func (s *MediaService) QRCode(origin, productID string) ([]byte, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, entity.ErrInvalidProductID
	}
	return s.cfg.QR.EncodePNG(s.ProductURL(origin, productID))
}

// QRCard renders the printable card for a product: template, QR code and
// wrapped product name. A template that fails to load is an error, not a
// silently blank card.
func (s *MediaService) QRCard(ctx context.Context, sess *entity.Session, origin, productID string) (*Card, error) {
	product, err := s.cfg.Products.GetByID(ctx, sess, productID)
	if err != nil {
		return nil, err
	}

	publicURL := s.ProductURL(origin, product.ID)
	code, err := s.cfg.QR.EncodeImage(publicURL)
	if err != nil {
		return nil, fmt.Errorf("render qr for %s: %w", product.ID, err)
	}

	template, err := s.cardTemplate(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.cfg.Cards.Compose(template, code, product.Name)
	if err != nil {
		return nil, fmt.Errorf("compose card for %s: %w", product.ID, err)
	}

	data, _, err := graphics.Encode(card, graphics.FormatPNG)
	if err != nil {
		return nil, fmt.Errorf("encode card for %s: %w", product.ID, err)
	}

	s.log.WithContext(ctx).Debug("QR card rendered", "product_id", product.ID, "bytes", len(data))
	return &Card{PNG: data, FileName: CardFileName(product), URL: publicURL}, nil
}

func (s *MediaService) cardTemplate(ctx context.Context) (image.Image, error) {
	if s.cfg.CardTemplateURL == "" {
		return nil, nil
	}
	img, err := s.cfg.Loader.Decode(ctx, s.cfg.CardTemplateURL)
	if err != nil {
		s.log.WithContext(ctx).Error("QR card template failed to load",
			"url", s.cfg.CardTemplateURL, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCardTemplate, err)
	}
	return img, nil
}

// Texture builds the bookmatched texture of the product's primary image.
// Image failures fall back to the original URL; only the product lookup can fail.
func (s *MediaService) Texture(ctx context.Context, sess *entity.Session, productID string) (graphics.Texture, error) {
	product, err := s.cfg.Products.GetByID(ctx, sess, productID)
	if err != nil {
		return graphics.Texture{}, err
	}
	src := product.PrimaryImage()
	if src == "" {
		return graphics.Texture{}, ErrNoImage
	}
	return s.cfg.Bookmatcher.Texture(ctx, src), nil
}

// Mockups renders the product texture into every configured room. All room
// photos are loaded before any preview is returned.
func (s *MediaService) Mockups(ctx context.Context, sess *entity.Session, productID string) ([]MockupView, error) {
	tex, err := s.Texture(ctx, sess, productID)
	if err != nil {
		return nil, err
	}

	previews := s.cfg.Mockups.Render(ctx, tex.Image)
	views := make([]MockupView, 0, len(previews))
	for _, p := range previews {
		dataURL, err := graphics.EncodeDataURL(p.Image, graphics.FormatJPEG)
		if err != nil {
			return nil, fmt.Errorf("encode mockup %s: %w", p.Name, err)
		}
		views = append(views, MockupView{Name: p.Name, DataURL: dataURL, Placeholder: p.Placeholder})
	}
	return views, nil
}

// ProxyImage fetches a remote image for the UI. On any failure the
// placeholder is returned instead and fallback is true.
func (s *MediaService) ProxyImage(ctx context.Context, ref string) (asset *port.Asset, fallback bool, err error) {
	asset, err = s.cfg.Loader.Fetch(ctx, ref)
	if err == nil {
		return asset, false, nil
	}

	s.log.WithContext(ctx).Warn("Image proxy fetch failed, serving placeholder", "url", ref, "error", err)

	if s.cfg.PlaceholderURL != "" {
		if ph, phErr := s.cfg.Loader.Fetch(ctx, s.cfg.PlaceholderURL); phErr == nil {
			return ph, true, nil
		}
	}

	data, mime, encErr := graphics.Encode(graphics.Placeholder(s.cfg.PlaceholderSize, s.cfg.PlaceholderSize), graphics.FormatPNG)
	if encErr != nil {
		return nil, true, fmt.Errorf("encode placeholder: %w", encErr)
	}
	return &port.Asset{Data: data, ContentType: mime}, true, nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

// CardFileName is the download name of a product's QR card, e.g.
// "statuario-extra-64f1c2-qr.png". The product ID keeps cards of products
// that share a name apart.
func CardFileName(p *entity.Product) string {
	var parts []string
	for _, s := range []string{p.Name, p.ID} {
		if slug := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(s), "-"), "-"); slug != "" {
			parts = append(parts, slug)
		}
	}
	if len(parts) == 0 {
		parts = []string{"product"}
	}
	return strings.Join(parts, "-") + "-qr.png"
}
