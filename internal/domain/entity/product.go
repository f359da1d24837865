// Package entity contains the core business entities of the domain layer.
package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/hapkiduki/stone-feeder/internal/domain/valueobject"
)

// Product errors define domain-specific error conditions for products.
var (
	ErrInvalidProductName     = errors.New("product name cannot be empty")
	ErrInvalidProductCategory = errors.New("product category cannot be empty")
	ErrInvalidProductPrice    = errors.New("product price must be positive")
	ErrInvalidProductID       = errors.New("product id cannot be empty")
	ErrInvalidQuantity        = errors.New("quantity must be a positive number")
	ErrInvalidPieceCount      = errors.New("piece count must be a positive number")
	ErrInvalidSize            = errors.New("size must look like 60x120")
)

// Product is a catalog entry as owned by the remote backend.
// The feeder never persists products itself.
type Product struct {
	// ID is the backend identifier, also used in the public product page route.
	ID string `json:"_id"`

	// Name is the display name, e.g. "Statuario Extra".
	Name string `json:"name"`

	// Category groups the product, e.g. "Italian Marble".
	Category string `json:"category"`

	// Description is free text shown on the product page.
	Description string `json:"description,omitempty"`

	// Finish is the surface finish (polished, honed, leather, ...).
	Finish string `json:"finish,omitempty"`

	// Thickness as typed by the vendor, e.g. "18mm".
	Thickness string `json:"thickness,omitempty"`

	// Size is the slab size text, e.g. "60x120".
	Size string `json:"size,omitempty"`

	// Unit of Size.
	Unit valueobject.Unit `json:"unit,omitempty"`

	// Pieces is the number of slabs in the lot.
	Pieces float64 `json:"pieces,omitempty"`

	// Quantity is the total area in square feet.
	Quantity float64 `json:"quantity,omitempty"`

	// Price is the price per square foot in major units (e.g. 250.5).
	Price float64 `json:"price,omitempty"`

	// Currency of Price; the catalog default applies when empty.
	Currency valueobject.Currency `json:"currency,omitempty"`

	// Images are the backend-hosted image URLs; the first is the primary image.
	Images []string `json:"images,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON decodes a backend product. The backend stores form fields as
// sent, so pieces, quantity and price may arrive as numbers or as text.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		Pieces   looseNumber `json:"pieces"`
		Quantity looseNumber `json:"quantity"`
		Price    looseNumber `json:"price"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Pieces = float64(aux.Pieces)
	p.Quantity = float64(aux.Quantity)
	p.Price = float64(aux.Price)
	return nil
}

// looseNumber accepts a JSON number, a numeric string such as "1,250.50",
// or null. Text that is not a plain decimal decodes as zero, which reads as
// unset.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] != '"' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*n = looseNumber(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, _ := valueobject.ParseDecimal(strings.ReplaceAll(s, ",", ""))
	*n = looseNumber(v)
	return nil
}

// PrimaryImage returns the first product image, or an empty string.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// PricePerSqft returns Price as Money.
func (p *Product) PricePerSqft(defaultCurrency valueobject.Currency) valueobject.Money {
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return valueobject.NewMoneyFromFloat(p.Price, currency)
}

// TotalPrice is the per-sqft price multiplied by the lot area.
func (p *Product) TotalPrice(defaultCurrency valueobject.Currency) valueobject.Money {
	return p.PricePerSqft(defaultCurrency).MultiplyFloat(p.Quantity)
}

// Dimensions returns the parsed dimensions of the lot, if the size text is well formed.
func (p *Product) Dimensions() (valueobject.ProductDimensions, bool) {
	l, h, ok := valueobject.ParseSize(p.Size)
	if !ok {
		return valueobject.ProductDimensions{}, false
	}
	res := valueobject.ProductDimensions{Unit: p.Unit, PieceCount: p.Pieces}
	res.Length, _ = parseFloat(l)
	res.Height, _ = parseFloat(h)
	return res, true
}

// SetPrice updates the per-sqft price.
//
// Returns:
//   - error: ErrInvalidProductPrice if price is not positive
func (p *Product) SetPrice(price valueobject.Money) error {
	if !price.IsPositive() {
		return ErrInvalidProductPrice
	}
	p.Price = price.ToFloat()
	p.Currency = price.Currency
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// FieldError ties a validation failure to a form field.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ProductDraft is the content of the create/edit product form.
// Numeric fields stay as typed text until validation.
type ProductDraft struct {
	Name        string
	Category    string
	Description string
	Finish      string
	Thickness   string
	Size        string
	Unit        valueobject.Unit
	Pieces      string
	Quantity    string
	Price       string
	Currency    valueobject.Currency

	// AutoCalculate overwrites Quantity with the area derived from Size, Unit and Pieces.
	AutoCalculate bool
}

// ApplyAutoQuantity recomputes Quantity when AutoCalculate is on.
// It returns the area result used, if any.
func (d *ProductDraft) ApplyAutoQuantity() (valueobject.AreaResult, bool) {
	if !d.AutoCalculate {
		return valueobject.AreaResult{}, false
	}
	q := valueobject.NewQuantityField(d.Unit)
	q.SetSize(d.Size)
	q.SetPieceCount(d.Pieces)
	res, ok := q.Preview()
	if ok {
		d.Quantity = q.Quantity()
	}
	return res, ok
}

// Validate checks the required fields and numeric formats of the draft.
// The returned slice is empty when the draft can be submitted.
func (d *ProductDraft) Validate() []FieldError {
	var errs []FieldError

	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, FieldError{"name", ErrInvalidProductName})
	}
	if strings.TrimSpace(d.Category) == "" {
		errs = append(errs, FieldError{"category", ErrInvalidProductCategory})
	}
	if d.Size != "" {
		if _, _, ok := valueobject.ParseSize(d.Size); !ok {
			errs = append(errs, FieldError{"size", ErrInvalidSize})
		}
	}
	if d.Unit != "" && d.Unit.Divisor() == 0 {
		errs = append(errs, FieldError{"unit", valueobject.ErrInvalidUnit})
	}
	if d.Pieces != "" {
		if v, ok := parseFloat(d.Pieces); !ok || v <= 0 {
			errs = append(errs, FieldError{"pieces", ErrInvalidPieceCount})
		}
	}
	if d.Quantity != "" {
		if v, ok := parseFloat(d.Quantity); !ok || v <= 0 {
			errs = append(errs, FieldError{"quantity", ErrInvalidQuantity})
		}
	}
	if price, err := valueobject.ParseMoney(d.Price, d.Currency); err != nil || !price.IsPositive() {
		errs = append(errs, FieldError{"price", ErrInvalidProductPrice})
	}

	return errs
}

// Fields returns the draft as backend form fields. Empty optional fields are omitted.
func (d *ProductDraft) Fields() map[string]string {
	fields := map[string]string{
		"name":     strings.TrimSpace(d.Name),
		"category": strings.TrimSpace(d.Category),
	}
	optional := map[string]string{
		"description": d.Description,
		"finish":      d.Finish,
		"thickness":   d.Thickness,
		"size":        d.Size,
		"unit":        string(d.Unit),
		"pieces":      d.Pieces,
		"quantity":    d.Quantity,
		"currency":    string(d.Currency),
	}
	for k, v := range optional {
		if v = strings.TrimSpace(v); v != "" {
			fields[k] = v
		}
	}
	if price, err := valueobject.ParseMoney(d.Price, d.Currency); err == nil {
		fields["price"] = strconv.FormatFloat(price.ToFloat(), 'f', 2, 64)
	}
	return fields
}

func parseFloat(s string) (float64, bool) {
	return valueobject.ParseDecimal(s)
}
