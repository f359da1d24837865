// Package port contains the port interfaces (driven ports) for the application layer.
// Ports define what the application layer requires from the outside world:
// logging, fetching remote images and turning URLs into QR codes.
//
// In Hexagonal Architecture (ports & adapters):
//   - Ports are interfaces that define what the application needs.
//   - Adapters are implementations of these interfaces
//   - This enables loose coupling and easy testing/swapping of implementations.
package port

import (
	"context"
	"image"
)

// Logger defines the interface for structured logging.
//
// Example usage:
//
//	logger.Info("Product created", "product_id", id, "images", len(images))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)

	// With return a logger with additional context fields.
	With(keysAndValues ...any) Logger

	// WithContext return a logger with context information (e.g., request ID).
	WithContext(ctx context.Context) Logger
}

// Asset is a fetched remote file.
type Asset struct {
	Data        []byte
	ContentType string
}

// ImageLoader fetches images. Loading is awaitable: the call blocks until the
// image is decoded or has failed, and the error is the failure reason.
type ImageLoader interface {
	// Fetch retrieves the raw bytes at ref (http(s) URL or local path).
	Fetch(ctx context.Context, ref string) (*Asset, error)

	// Decode retrieves and decodes the image at ref.
	Decode(ctx context.Context, ref string) (image.Image, error)
}

// QREncoder renders a URL as a scannable QR raster.
type QREncoder interface {
	// EncodePNG returns the PNG bytes of the QR code for url.
	EncodePNG(url string) ([]byte, error)

	// EncodeImage returns the QR code for url as an image.
	EncodeImage(url string) (image.Image, error)
}
