package dto

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/domain/valueobject"
)

// ProductResponse is a product as shown in lists and detail views.
type ProductResponse struct {
	*entity.Product

	// PricePerSqft is the formatted per-sqft price, e.g. "₹250.00".
	PricePerSqft string `json:"pricePerSqft,omitempty"`

	// TotalPrice is price × quantity, formatted.
	TotalPrice string `json:"totalPrice,omitempty"`

	// PublicURL is the public product page encoded in the product's QR code.
	PublicURL string `json:"publicUrl,omitempty"`
}

// NewProductResponse decorates a product with its derived display fields.
func NewProductResponse(p *entity.Product, currency valueobject.Currency, publicURL string) ProductResponse {
	res := ProductResponse{Product: p, PublicURL: publicURL}
	if p.Price > 0 {
		res.PricePerSqft = p.PricePerSqft(currency).Format()
		if p.Quantity > 0 {
			res.TotalPrice = p.TotalPrice(currency).Format()
		}
	}
	return res
}

// AreaResponse is the calculator preview.
type AreaResponse struct {
	valueobject.AreaResult

	// Quantity is TotalArea formatted for the quantity input.
	Quantity string `json:"quantity"`
}

// AreaPreviewResponse wraps the calculator preview. Data is always sent and
// is null when the inputs do not describe an area.
type AreaPreviewResponse struct {
	Success bool          `json:"success"`
	Data    *AreaResponse `json:"data"`
	Meta    *ResponseMeta `json:"meta,omitempty"`
}

// PriceUpdateRequest is the body of a price update.
type PriceUpdateRequest struct {
	Price    FormValue `json:"price"`
	Currency string    `json:"currency,omitempty"`
}

// FormValue is a form field sent as a JSON string, number or boolean.
// It always holds the text the user typed (or its JSON rendering).
type FormValue string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = FormValue(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("form value must be a string, number or boolean: %w", err)
	}
	*v = FormValue(strconv.FormatBool(b))
	return nil
}

// UpdateRequest is a JSON product update: field name to value.
type UpdateRequest map[string]FormValue

// Fields returns the update as backend form fields.
func (u UpdateRequest) Fields() map[string]string {
	fields := make(map[string]string, len(u))
	for k, v := range u {
		fields[k] = string(v)
	}
	return fields
}

// LoginRequest opens a feeder session for a backend token.
type LoginRequest struct {
	Token string `json:"token"`
	User  string `json:"user,omitempty"`
}

// SessionResponse describes an open session.
type SessionResponse struct {
	ID   string `json:"id"`
	User string `json:"user,omitempty"`
}

// TextureResponse is a bookmatched texture for CSS background tiling.
type TextureResponse struct {
	// URL is a data URL, or the original image URL when Fallback is set.
	URL string `json:"url"`

	// TileSize is the reported background tile size in pixels.
	TileSize int `json:"tileSize"`

	// Strategy names the tiling used, empty on fallback.
	Strategy string `json:"strategy,omitempty"`

	Fallback bool `json:"fallback"`
}

// MockupResponse is one rendered room preview.
type MockupResponse struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Placeholder bool   `json:"placeholder,omitempty"`
}
