// Package config provides configuration management for the feeder.
// It follows the 12-Factor App methodology by loading configuration
// from environment variables and supporting an optional config file.
//
// 12-Factor App Compliance:
//   - III. Config: Store config in the environment
//   - The backend base URL is read once at startup, with a hardcoded fallback
//   - Session tokens never live in configuration
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Hardcoded fallbacks used when nothing is configured.
const (
	DefaultBackendURL   = "https://api.stonecatalog.in"
	DefaultPublicOrigin = "https://stonecatalog.in"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Public    PublicConfig    `mapstructure:"public"`
	QR        QRConfig        `mapstructure:"qr"`
	Card      CardConfig      `mapstructure:"card"`
	Bookmatch BookmatchConfig `mapstructure:"bookmatch"`
	Mockups   []MockupConfig  `mapstructure:"mockups"`
	Proxy     ProxyConfig     `mapstructure:"proxy"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig   `mapstructure:"session"`
}

// AppConfig contains application-level configuration.
type AppConfig struct {
	// Name of the application
	Name string `mapstructure:"name"`

	// Environment the application is running in (development, staging, production)
	Environment string `mapstructure:"environment"`

	// Version of the application
	Version string `mapstructure:"version"`

	// Currency is the catalog currency used when a product carries none.
	Currency string `mapstructure:"currency"`
}

// LogConfig contains logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address
	Host string `mapstructure:"host"`

	// Port is the server port
	Port int `mapstructure:"port"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxUploadSize is the maximum multipart body accepted for product images
	MaxUploadSize int64 `mapstructure:"max_upload_size"`

	// CORSAllowedOrigins is a list of allowed origins for CORS
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// BackendConfig locates the catalog REST backend.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// PublicConfig describes the public storefront.
type PublicConfig struct {
	// Origin is used for product URLs when there is no browsing context.
	Origin string `mapstructure:"origin"`
}

// QRConfig fixes the QR raster options.
type QRConfig struct {
	// Width of the QR raster in pixels.
	Width int `mapstructure:"width"`

	// Margin in pixels around the code.
	Margin int `mapstructure:"margin"`
}

// CardConfig describes the printable QR card layout.
type CardConfig struct {
	// TemplateURL is the card background (URL or file path); empty means plain white.
	TemplateURL string `mapstructure:"template_url"`

	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`

	QRX    int `mapstructure:"qr_x"`
	QRY    int `mapstructure:"qr_y"`
	QRSize int `mapstructure:"qr_size"`

	// TextY is the baseline of the first name line.
	TextY        int     `mapstructure:"text_y"`
	MaxTextWidth int     `mapstructure:"max_text_width"`
	LineHeight   int     `mapstructure:"line_height"`
	FontSize     float64 `mapstructure:"font_size"`
	MaxLines     int     `mapstructure:"max_lines"`
}

// SizeConfig is a width × height pair in pixels.
type SizeConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// BookmatchConfig tunes texture tiling.
type BookmatchConfig struct {
	// KnownSizes get the 2×2 mirror layout.
	KnownSizes []SizeConfig `mapstructure:"known_sizes"`

	// SquareTolerance is the allowed |w/h - 1| for an image to count as near-square.
	SquareTolerance float64 `mapstructure:"square_tolerance"`

	// TileSize is the background tile size reported to the UI.
	TileSize int `mapstructure:"tile_size"`
}

// MockupConfig is a room photo with a transparent surface where the texture shows through.
type MockupConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// ProxyConfig configures the image proxy.
type ProxyConfig struct {
	// PlaceholderURL is served when a proxied fetch fails; empty means a generated grey tile.
	PlaceholderURL string `mapstructure:"placeholder_url"`

	// MaxBytes caps proxied image size.
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// RateLimitConfig configures the per-client limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// SessionConfig bounds the in-memory login sessions.
type SessionConfig struct {
	// TTL is how long a login stays valid.
	TTL time.Duration `mapstructure:"ttl"`

	// MaxSessions caps open sessions; the oldest is evicted beyond it.
	MaxSessions int `mapstructure:"max_sessions"`
}

// Load loads the configuration from environment variables and config files.
// It follows this precedence (highest to lowest):
//  1. Environment variables (FEEDER_*, plus BACKEND_URL and PORT)
//  2. Config file (if provided)
//  3. Default values
//
// Returns:
//   - *Config: The loaded configuration
//   - error: Any error encountered during loading
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/stone-feeder")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("FEEDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalises URLs and rejects unusable values.
func (c *Config) Validate() error {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBackendURL
	}
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid backend.base_url %q: %w", c.Backend.BaseURL, err)
	}

	c.Public.Origin = strings.TrimRight(strings.TrimSpace(c.Public.Origin), "/")
	if c.Public.Origin == "" {
		c.Public.Origin = DefaultPublicOrigin
	}

	if c.QR.Width <= 2*c.QR.Margin {
		return fmt.Errorf("qr.width %d must exceed twice qr.margin %d", c.QR.Width, c.QR.Margin)
	}
	if c.Card.MaxLines < 1 {
		return fmt.Errorf("card.max_lines must be at least 1")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stone-feeder")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.currency", "INR")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_size", 32<<20) // 32MB
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("backend.base_url", DefaultBackendURL)
	v.SetDefault("public.origin", DefaultPublicOrigin)

	v.SetDefault("qr.width", 300)
	v.SetDefault("qr.margin", 8)

	v.SetDefault("card.template_url", "")
	v.SetDefault("card.width", 600)
	v.SetDefault("card.height", 900)
	v.SetDefault("card.qr_x", 100)
	v.SetDefault("card.qr_y", 160)
	v.SetDefault("card.qr_size", 400)
	v.SetDefault("card.text_y", 640)
	v.SetDefault("card.max_text_width", 500)
	v.SetDefault("card.line_height", 40)
	v.SetDefault("card.font_size", 30)
	v.SetDefault("card.max_lines", 3)

	v.SetDefault("bookmatch.known_sizes", []map[string]any{
		{"width": 488, "height": 488},
		{"width": 646, "height": 646},
	})
	v.SetDefault("bookmatch.square_tolerance", 0.05)
	v.SetDefault("bookmatch.tile_size", 400)

	v.SetDefault("mockups", []map[string]any{})

	v.SetDefault("proxy.placeholder_url", "")
	v.SetDefault("proxy.max_bytes", 20<<20)

	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.max_sessions", 1000)
}

// bindEnvVars binds specific environment variables to configuration keys.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.environment", "FEEDER_ENVIRONMENT")
	v.BindEnv("backend.base_url", "FEEDER_BACKEND_URL", "BACKEND_URL")
	v.BindEnv("public.origin", "FEEDER_PUBLIC_ORIGIN")
	v.BindEnv("server.port", "FEEDER_SERVER_PORT", "PORT")
}

// MustLoad loads the configuration and panics on error.
// Use this in application entry points where configuration is required.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
