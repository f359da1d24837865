// Package main renders printable QR cards for catalog products in bulk.
//
// Usage:
//
//	qrcards [flags] <product-id>...
//	qrcards --all --out ./cards
//
// Configuration is read the same way as the feeder service; flags override it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/hapkiduki/stone-feeder/internal/application/service"
	"github.com/hapkiduki/stone-feeder/internal/bootstrap"
	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/config"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/logging"
	"github.com/hapkiduki/stone-feeder/pkg/logger"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/pflag"
)

type options struct {
	out         string
	origin      string
	template    string
	token       string
	all         bool
	concurrency int
	ids         []string
}

// cardSource is the slice of the media and catalog services the CLI needs.
type cardSource interface {
	QRCard(ctx context.Context, sess *entity.Session, origin, productID string) (*service.Card, error)
}

type catalogLister interface {
	List(ctx context.Context, sess *entity.Session) ([]*entity.Product, error)
}

func main() {
	cfg := config.MustLoad()

	var opts options
	fs := pflag.NewFlagSet("qrcards", pflag.ExitOnError)
	fs.StringVarP(&opts.out, "out", "o", ".", "directory the card PNGs are written to")
	fs.StringVar(&opts.origin, "origin", cfg.Public.Origin, "storefront origin encoded in the product URLs")
	fs.StringVar(&opts.template, "template", cfg.Card.TemplateURL, "card background image (URL or file path)")
	fs.StringVar(&opts.token, "token", os.Getenv("FEEDER_BACKEND_TOKEN"), "backend bearer token")
	fs.BoolVar(&opts.all, "all", false, "render a card for every product in the catalog")
	fs.IntVarP(&opts.concurrency, "concurrency", "c", 4, "cards rendered in parallel")
	_ = fs.Parse(os.Args[1:])
	opts.ids = fs.Args()

	log := logger.MustNew(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer log.Sync()
	logAdapter := logging.Adapt(log)

	cfg.Card.TemplateURL = opts.template
	services, err := bootstrap.Build(cfg, nil, logAdapter)
	if err != nil {
		log.Fatal("Failed to assemble services", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	written, err := run(ctx, opts, services.Catalog, services.Media, logAdapter)
	log.Info("QR cards written", "count", len(written), "dir", opts.out)
	if err != nil {
		log.Error("Some cards failed", "error", err)
		os.Exit(1)
	}
}

// run renders a card for each requested product and writes it to opts.out.
// It returns the written paths; failures are joined and do not stop other cards.
func run(ctx context.Context, opts options, catalog catalogLister, cards cardSource, log port.Logger) ([]string, error) {
	var sess *entity.Session
	if opts.token != "" {
		s, err := entity.NewSession(opts.token, "qrcards")
		if err != nil {
			return nil, err
		}
		sess = s
	}

	ids := opts.ids
	if opts.all {
		products, err := catalog.List(ctx, sess)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		ids = make([]string, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, errors.New("no product ids given (pass ids or --all)")
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return nil, err
	}

	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	names := &fileNames{taken: make(map[string]bool, len(ids))}
	p := pool.NewWithResults[string]().WithContext(ctx).WithMaxGoroutines(opts.concurrency)
	for _, id := range ids {
		p.Go(func(ctx context.Context) (string, error) {
			card, err := cards.QRCard(ctx, sess, opts.origin, id)
			if err != nil {
				log.Warn("Card failed", "product_id", id, "error", err)
				return "", fmt.Errorf("%s: %w", id, err)
			}
			path := filepath.Join(opts.out, names.claim(card.FileName))
			if err := os.WriteFile(path, card.PNG, 0o644); err != nil {
				return "", fmt.Errorf("%s: %w", id, err)
			}
			log.Debug("Card written", "product_id", id, "path", path, "url", card.URL)
			return path, nil
		})
	}
	return p.Wait()
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// fileNames hands out distinct file names to concurrent card writers.
// A name already claimed gets a numeric suffix: "x-qr.png", "x-qr-2.png".
type fileNames struct {
	mu    sync.Mutex
	taken map[string]bool
}

func (f *fileNames) claim(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; f.taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
	f.taken[candidate] = true
	return candidate
}
