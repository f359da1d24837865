// Package repository contains the repository interfaces (ports) for data access.
package repository

import (
	"context"
	"io"

	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
)

// ImageUpload is one image file attached to a create or update request.
type ImageUpload struct {
	// FileName is the original file name, e.g. "slab-01.jpg".
	FileName string

	// ContentType is the MIME type, e.g. "image/jpeg".
	ContentType string

	// Content is read once while the request body is written.
	Content io.Reader
}

// ProductRepository defines the product operations offered by the catalog backend.
// Every call is a single request/response round trip: no retry, no cache.
//
// Example usage:
//
//	repo := restapi.NewProductRepository(client)
//	product, err := repo.GetByID(ctx, sess, productID)
type ProductRepository interface {
	// List retrieves every product.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - sess: session whose token authorizes the call (may be nil for public reads)
	//
	// Returns:
	//   - []*entity.Product: all products
	//   - error: any error encountered during the round trip
	List(ctx context.Context, sess *entity.Session) ([]*entity.Product, error)

	// GetByID retrieves a product by its backend identifier.
	//
	// Returns:
	//   - *entity.Product: the product
	//   - error: ErrProductNotFound if product doesn't exist
	GetByID(ctx context.Context, sess *entity.Session, id string) (*entity.Product, error)

	// Create submits a new product with its images as a multipart form.
	//
	// Returns:
	//   - *entity.Product: the product as stored by the backend
	//   - error: any error encountered during the round trip
	Create(ctx context.Context, sess *entity.Session, fields map[string]string, images []ImageUpload) (*entity.Product, error)

	// Update changes product fields. Images, when present, switch the request to multipart.
	Update(ctx context.Context, sess *entity.Session, id string, fields map[string]string, images []ImageUpload) (*entity.Product, error)

	// UpdatePrice sets the per-square-foot price of a product.
	UpdatePrice(ctx context.Context, sess *entity.Session, id string, price float64) (*entity.Product, error)
}
