package handler

import (
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/hapkiduki/stone-feeder/internal/application/dto"
	"github.com/hapkiduki/stone-feeder/internal/application/service"
	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/domain/repository"
	"github.com/hapkiduki/stone-feeder/internal/interfaces/http/middleware"
)

// Area previews the calculator for the quantity field. Invalid input yields
// a successful response with null data: there is no computed quantity to show.
func (h *Handler) Area(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, ok := h.catalog.PreviewArea(service.AreaInput{
		Size:   q.Get("size"),
		Length: q.Get("length"),
		Height: q.Get("height"),
		Unit:   q.Get("unit"),
		Pieces: q.Get("pieces"),
	})

	out := dto.AreaPreviewResponse{Success: true}
	if ok {
		out.Data = &dto.AreaResponse{AreaResult: res, Quantity: formatQuantity(res.TotalArea)}
	}
	if id := middleware.GetRequestID(r.Context()); id != "" {
		out.Meta = &dto.ResponseMeta{RequestID: id}
	}
	render.JSON(w, r, out)
}

// ListProducts returns every product.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	origin := h.origin(r)
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, h.productResponse(origin, p))
	}

	res := dto.NewSuccessResponse(out)
	res.Meta = &dto.ResponseMeta{RequestID: middleware.GetRequestID(r.Context()), Count: len(out)}
	render.JSON(w, r, res)
}

// GetProduct returns one product with its derived prices.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, h.productResponse(h.origin(r), p))
}

// CreateProduct accepts the product form as multipart, with images under "images".
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseMultipart(w, r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_FORM", "The product form could not be read")
		return
	}

	draft, err := service.DraftFromFields(func(k string) string { return firstValue(form, k) })
	if err != nil {
		h.fail(w, r, err)
		return
	}

	images, closeAll, err := imageUploads(form)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_FORM", "An image could not be read")
		return
	}
	defer closeAll()

	p, err := h.catalog.Create(r.Context(), middleware.SessionFromContext(r.Context()), draft, images)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, h.productResponse(h.origin(r), p))
}

// UpdateProduct changes product fields, sent as JSON or as multipart when
// new images are attached.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var (
		fields map[string]string
		images []repository.ImageUpload
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		form, err := h.parseMultipart(w, r)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_FORM", "The product form could not be read")
			return
		}
		fields = make(map[string]string, len(form.Value))
		for k := range form.Value {
			fields[k] = firstValue(form, k)
		}
		var closeAll func()
		images, closeAll, err = imageUploads(form)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_FORM", "An image could not be read")
			return
		}
		defer closeAll()
	} else {
		var req dto.UpdateRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			respondError(w, r, http.StatusBadRequest, "INVALID_JSON", "The request body is not valid JSON")
			return
		}
		fields = req.Fields()
	}

	p, err := h.catalog.Update(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"), fields, images)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, h.productResponse(h.origin(r), p))
}

// UpdatePrice sets the per-square-foot price.
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req dto.PriceUpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", "The request body is not valid JSON")
		return
	}

	p, err := h.catalog.UpdatePrice(r.Context(), middleware.SessionFromContext(r.Context()),
		chi.URLParam(r, "id"), string(req.Price), req.Currency)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, h.productResponse(h.origin(r), p))
}

func (h *Handler) productResponse(origin string, p *entity.Product) dto.ProductResponse {
	return dto.NewProductResponse(p, h.catalog.Currency(), h.media.ProductURL(origin, p.ID))
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return nil, err
	}
	return r.MultipartForm, nil
}

// imageUploads opens every file under "images". The returned func closes them.
func imageUploads(form *multipart.Form) ([]repository.ImageUpload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	headers := form.File["images"]
	uploads := make([]repository.ImageUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		uploads = append(uploads, repository.ImageUpload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}
	return uploads, closeAll, nil
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
