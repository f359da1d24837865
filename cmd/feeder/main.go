// Package main is the entry point for the stone catalog feeder service.
// It serves the admin API used to create and price products, and renders
// QR codes, printable cards, bookmatched textures and room mockups.
//
// Usage:
//
//	go run ./cmd/feeder
//
// Environment Variables:
//
//	FEEDER_APP_ENVIRONMENT - Deployment environment (development, staging, production)
//	PORT                   - HTTP server port (default: 8080)
//	BACKEND_URL            - Catalog REST backend
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hapkiduki/stone-feeder/internal/bootstrap"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/config"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/logging"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/sessionstore"
	"github.com/hapkiduki/stone-feeder/internal/interfaces/http/handler"
	"github.com/hapkiduki/stone-feeder/internal/interfaces/http/middleware"
	"github.com/hapkiduki/stone-feeder/pkg/logger"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	cfg := config.MustLoad()
	if cfg.App.Version != "" {
		version = cfg.App.Version
	}

	log := logger.MustNew(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.App.Environment == "development",
	})
	defer log.Sync()

	log.Info("Starting stone feeder",
		"version", version,
		"environment", cfg.App.Environment,
		"backend", cfg.Backend.BaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logAdapter := logging.Adapt(log)

	services, err := bootstrap.Build(cfg, nil, logAdapter)
	if err != nil {
		log.Fatal("Failed to assemble services", "error", err)
	}

	r := chi.NewRouter()

	// Order matters: middleware runs in the order added.

	// 1. Real IP extraction (for rate limiting and logging)
	r.Use(middleware.RealIP)

	// 2. Request ID generation/propagation
	r.Use(middleware.RequestID)

	// 3. Logging (after Request ID so it's included in logs)
	r.Use(middleware.Logger(logAdapter))

	// 4. Panic recovery
	r.Use(middleware.Recoverer(logAdapter))

	// 5. Request timeout, kept under the server write timeout
	r.Use(middleware.Timeout(requestTimeout(cfg.Server.WriteTimeout)))

	// 6. CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-API-Version", "X-Image-Fallback", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 7. Rate limiting
	limits := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	}
	if cfg.RateLimit.Burst > 0 {
		limits.Burst = cfg.RateLimit.Burst
	}
	r.Use(middleware.RateLimiter(limits))

	// 8. Security headers
	r.Use(middleware.SecureHeaders)

	// 9. API version header
	r.Use(middleware.APIVersion(version))

	sessions := sessionstore.New(
		sessionstore.WithTTL(cfg.Session.TTL),
		sessionstore.WithMaxSessions(cfg.Session.MaxSessions),
	)

	handler.New(handler.Config{
		Catalog:        services.Catalog,
		Media:          services.Media,
		Sessions:       sessions,
		Log:            logAdapter.With("component", "http"),
		FallbackOrigin: cfg.Public.Origin,
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		SecureCookies:  cfg.App.Environment == "production",
		Version:        version,
	}).Routes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	<-ctx.Done()

	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	log.Info("Server shutdown complete")
}

// requestTimeout leaves a second for the timeout response itself.
func requestTimeout(write time.Duration) time.Duration {
	switch {
	case write <= 0:
		return 30 * time.Second
	case write <= 2*time.Second:
		return write
	}
	return write - time.Second
}
