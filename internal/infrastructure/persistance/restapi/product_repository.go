package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/domain/repository"
)

// Backend endpoints.
const (
	pathListProducts  = "/api/getAllProducts"
	pathGetProduct    = "/api/getPostDataById"
	pathCreateProduct = "/api/create-post"
	pathUpdateProduct = "/api/updateProduct/"
)

// ProductRepository implements repository.ProductRepository over the backend REST API.
type ProductRepository struct {
	client *Client
}

// NewProductRepository creates a new REST product repository.
func NewProductRepository(client *Client) *ProductRepository {
	return &ProductRepository{client: client}
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// List retrieves every product.
func (r *ProductRepository) List(ctx context.Context, sess *entity.Session) ([]*entity.Product, error) {
	var products []*entity.Product
	if err := r.client.do(ctx, sess, request{method: http.MethodGet, path: pathListProducts}, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []*entity.Product{}
	}
	return products, nil
}

// GetByID retrieves a product by its backend identifier.
func (r *ProductRepository) GetByID(ctx context.Context, sess *entity.Session, id string) (*entity.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, entity.ErrInvalidProductID)
	}

	var product entity.Product
	req := request{
		method: http.MethodGet,
		path:   pathGetProduct,
		query:  url.Values{"id": []string{id}},
	}
	if err := r.client.do(ctx, sess, req, &product); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if product.ID == "" {
		return nil, fmt.Errorf("get product %s: %w", id, repository.ErrProductNotFound)
	}
	return &product, nil
}

// Create submits a new product as a multipart form.
func (r *ProductRepository) Create(ctx context.Context, sess *entity.Session, fields map[string]string, images []repository.ImageUpload) (*entity.Product, error) {
	body, contentType, err := multipartBody(fields, images)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	var product entity.Product
	req := request{method: http.MethodPost, path: pathCreateProduct, body: body, contentType: contentType}
	if err := r.client.do(ctx, sess, req, &product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &product, nil
}

// Update changes product fields. The request is JSON unless images are attached.
func (r *ProductRepository) Update(ctx context.Context, sess *entity.Session, id string, fields map[string]string, images []repository.ImageUpload) (*entity.Product, error) {
	return r.update(ctx, sess, id, fields, images)
}

// UpdatePrice sets the per-square-foot price of a product.
func (r *ProductRepository) UpdatePrice(ctx context.Context, sess *entity.Session, id string, price float64) (*entity.Product, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, entity.ErrInvalidProductPrice)
	}
	return r.update(ctx, sess, id, map[string]any{"price": price}, nil)
}

// update posts to the update endpoint. With images, payload must be a
// map[string]string and is sent as multipart; otherwise it is sent as JSON.
func (r *ProductRepository) update(ctx context.Context, sess *entity.Session, id string, payload any, images []repository.ImageUpload) (*entity.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, entity.ErrInvalidProductID)
	}

	req := request{method: http.MethodPost, path: pathUpdateProduct + url.PathEscape(id)}

	var err error
	if fields, ok := payload.(map[string]string); ok && len(images) > 0 {
		req.body, req.contentType, err = multipartBody(fields, images)
	} else {
		req.body, req.contentType, err = jsonBody(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}

	var product entity.Product
	if err := r.client.do(ctx, sess, req, &product); err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	if product.ID == "" {
		product.ID = id
	}
	return &product, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func imagePartHeader(img repository.ImageUpload) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="images"; filename="%s"`, quoteEscaper.Replace(img.FileName)))
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}
