package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/domain/repository"
	"github.com/hapkiduki/stone-feeder/internal/domain/valueobject"
)

// AutoCalculateField is the form flag that asks for the quantity to be derived
// from size, unit and pieces. It is consumed here and never sent to the backend.
const AutoCalculateField = "autoCalculate"

// AreaInput is the raw calculator input. Size, when set, takes precedence
// over Length and Height.
type AreaInput struct {
	Size   string
	Length string
	Height string
	Unit   string
	Pieces string
}

// CatalogService reads and writes products through the backend.
type CatalogService struct {
	repo     repository.ProductRepository
	currency valueobject.Currency
	log      port.Logger
}

// NewCatalogService creates a CatalogService. currency applies to prices
// that carry none.
func NewCatalogService(repo repository.ProductRepository, currency valueobject.Currency, log port.Logger) *CatalogService {
	return &CatalogService{repo: repo, currency: currency, log: log}
}

// Currency returns the catalog default currency.
func (s *CatalogService) Currency() valueobject.Currency {
	return s.currency
}

// List returns every product.
func (s *CatalogService) List(ctx context.Context, sess *entity.Session) ([]*entity.Product, error) {
	return s.repo.List(ctx, sess)
}

// Get returns one product.
func (s *CatalogService) Get(ctx context.Context, sess *entity.Session, id string) (*entity.Product, error) {
	return s.repo.GetByID(ctx, sess, id)
}

// PreviewArea runs the area calculator on raw form input.
// It returns false when any operand is missing, non-numeric or not positive.
func (s *CatalogService) PreviewArea(in AreaInput) (valueobject.AreaResult, bool) {
	length, height := in.Length, in.Height
	if strings.TrimSpace(in.Size) != "" {
		l, h, ok := valueobject.ParseSize(in.Size)
		if !ok {
			return valueobject.AreaResult{}, false
		}
		length, height = l, h
	}

	unit, err := valueobject.ParseUnit(in.Unit)
	if err != nil {
		return valueobject.AreaResult{}, false
	}

	return valueobject.ComputeArea(length, height, unit, in.Pieces)
}

// Create validates the draft and submits it with its images. With
// AutoCalculate set, the quantity is derived from the dimensions first.
//
// Returns:
//   - *entity.Product: the product as stored by the backend
//   - error: *ValidationError, or a repository error
func (s *CatalogService) Create(ctx context.Context, sess *entity.Session, draft *entity.ProductDraft, images []repository.ImageUpload) (*entity.Product, error) {
	if draft.Currency == "" {
		draft.Currency = s.currency
	}
	draft.ApplyAutoQuantity()

	if errs := draft.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	product, err := s.repo.Create(ctx, sess, draft.Fields(), images)
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Product created",
		"product_id", product.ID, "name", product.Name, "images", len(images))
	return product, nil
}

// Update changes the given fields of a product. The numeric fields present
// are validated; absent fields are left untouched by the backend. With
// AutoCalculateField set to true, quantity is recomputed from the size, unit
// and pieces in fields.
func (s *CatalogService) Update(ctx context.Context, sess *entity.Session, id string, fields map[string]string, images []repository.ImageUpload) (*entity.Product, error) {
	fields, errs := normalizeUpdate(fields)
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	if len(fields) == 0 && len(images) == 0 {
		return nil, &ValidationError{Fields: []entity.FieldError{{Field: "fields", Err: repository.ErrInvalidInput}}}
	}

	product, err := s.repo.Update(ctx, sess, id, fields, images)
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Product updated",
		"product_id", id, "fields", len(fields), "images", len(images))
	return product, nil
}

// UpdatePrice sets the per-square-foot price from typed text such as "₹1,250.50".
func (s *CatalogService) UpdatePrice(ctx context.Context, sess *entity.Session, id, price, currency string) (*entity.Product, error) {
	cur := s.currency
	if strings.TrimSpace(currency) != "" {
		c, err := valueobject.ParseCurrency(currency)
		if err != nil {
			return nil, &ValidationError{Fields: []entity.FieldError{{Field: "currency", Err: err}}}
		}
		cur = c
	}

	money, err := valueobject.ParseMoney(price, cur)
	if err != nil || !money.IsPositive() {
		return nil, &ValidationError{Fields: []entity.FieldError{{Field: "price", Err: entity.ErrInvalidProductPrice}}}
	}

	product, err := s.repo.UpdatePrice(ctx, sess, id, money.ToFloat())
	if err != nil {
		return nil, err
	}
	if product.Price == 0 {
		if err := product.SetPrice(money); err != nil {
			return nil, err
		}
	}

	s.log.WithContext(ctx).Info("Product price updated",
		"product_id", id, "price", money.String())
	return product, nil
}

// normalizeUpdate trims values, drops blanks, applies the auto-calculate flag
// and validates the numeric fields that are present.
func normalizeUpdate(in map[string]string) (map[string]string, []entity.FieldError) {
	fields := make(map[string]string, len(in))
	auto := false
	for k, v := range in {
		v = strings.TrimSpace(v)
		if k == AutoCalculateField {
			auto, _ = strconv.ParseBool(v)
			continue
		}
		if v != "" {
			fields[k] = v
		}
	}

	var errs []entity.FieldError
	if v, ok := fields["unit"]; ok {
		unit, err := valueobject.ParseUnit(v)
		if err != nil {
			errs = append(errs, entity.FieldError{Field: "unit", Err: err})
		} else {
			fields["unit"] = string(unit)
		}
	}

	if auto {
		unit := valueobject.UnitInch
		if v, ok := fields["unit"]; ok {
			unit = valueobject.Unit(v)
		}
		q := valueobject.NewQuantityField(unit)
		q.SetSize(fields["size"])
		q.SetPieceCount(fields["pieces"])
		if _, ok := q.Preview(); ok {
			fields["quantity"] = q.Quantity()
		}
	}

	if v, ok := fields["size"]; ok {
		if _, _, valid := valueobject.ParseSize(v); !valid {
			errs = append(errs, entity.FieldError{Field: "size", Err: entity.ErrInvalidSize})
		}
	}
	for _, check := range []struct {
		field string
		err   error
	}{
		{"pieces", entity.ErrInvalidPieceCount},
		{"quantity", entity.ErrInvalidQuantity},
	} {
		v, ok := fields[check.field]
		if !ok {
			continue
		}
		if f, valid := valueobject.ParseDecimal(v); !valid || f <= 0 {
			errs = append(errs, entity.FieldError{Field: check.field, Err: check.err})
		}
	}
	if v, ok := fields["price"]; ok {
		price, err := valueobject.ParseMoney(v, valueobject.Currency(fields["currency"]))
		if err != nil || !price.IsPositive() {
			errs = append(errs, entity.FieldError{Field: "price", Err: entity.ErrInvalidProductPrice})
		} else {
			fields["price"] = strconv.FormatFloat(price.ToFloat(), 'f', 2, 64)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return fields, nil
}

// DraftFromFields builds a draft from submitted form values.
func DraftFromFields(get func(string) string) (*entity.ProductDraft, error) {
	draft := &entity.ProductDraft{
		Name:        get("name"),
		Category:    get("category"),
		Description: get("description"),
		Finish:      get("finish"),
		Thickness:   get("thickness"),
		Size:        get("size"),
		Pieces:      get("pieces"),
		Quantity:    get("quantity"),
		Price:       get("price"),
	}

	var errs []entity.FieldError
	if u := get("unit"); strings.TrimSpace(u) != "" {
		unit, err := valueobject.ParseUnit(u)
		if err != nil {
			errs = append(errs, entity.FieldError{Field: "unit", Err: err})
		}
		draft.Unit = unit
	} else {
		draft.Unit = valueobject.UnitInch
	}
	if c := get("currency"); strings.TrimSpace(c) != "" {
		cur, err := valueobject.ParseCurrency(c)
		if err != nil {
			errs = append(errs, entity.FieldError{Field: "currency", Err: err})
		}
		draft.Currency = cur
	}
	if a := get(AutoCalculateField); a != "" {
		auto, err := strconv.ParseBool(strings.TrimSpace(a))
		if err != nil {
			errs = append(errs, entity.FieldError{Field: AutoCalculateField, Err: ErrInvalidFlag})
		}
		draft.AutoCalculate = auto
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return draft, nil
}
