// Package handler exposes the feeder over HTTP: the catalog JSON API consumed
// by the admin UI, QR and card images, textures, mockups and the image proxy.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/hapkiduki/stone-feeder/internal/application/dto"
	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/hapkiduki/stone-feeder/internal/application/service"
	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/domain/repository"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/qr"
	"github.com/hapkiduki/stone-feeder/internal/infrastructure/sessionstore"
	"github.com/hapkiduki/stone-feeder/internal/interfaces/http/middleware"
)

// Config wires a Handler.
type Config struct {
	Catalog  *service.CatalogService
	Media    *service.MediaService
	Sessions *sessionstore.Store
	Log      port.Logger

	// FallbackOrigin is used for product URLs when a request carries no origin.
	FallbackOrigin string

	// MaxUploadSize caps multipart bodies.
	MaxUploadSize int64

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool

	Version string
}

// Handler serves the feeder HTTP API.
type Handler struct {
	catalog  *service.CatalogService
	media    *service.MediaService
	sessions *sessionstore.Store
	log      port.Logger

	fallbackOrigin string
	maxUploadSize  int64
	secureCookies  bool
	version        string
	started        time.Time
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 32 << 20
	}
	return &Handler{
		catalog:        cfg.Catalog,
		media:          cfg.Media,
		sessions:       cfg.Sessions,
		log:            cfg.Log,
		fallbackOrigin: cfg.FallbackOrigin,
		maxUploadSize:  cfg.MaxUploadSize,
		secureCookies:  cfg.SecureCookies,
		version:        cfg.Version,
		started:        time.Now(),
	}
}

// Routes mounts every feeder route on r.
//
//	GET    /health
//	GET    /api/image-proxy?url=
//	POST   /feeder/session                      login
//	DELETE /feeder/session                      logout
//	GET    /feeder/area                         calculator preview
//	GET    /feeder/products                     list
//	POST   /feeder/products                     create (multipart)
//	GET    /feeder/products/{id}                detail
//	POST   /feeder/products/{id}                update (JSON or multipart)
//	PATCH  /feeder/products/{id}/price          price update
//	GET    /feeder/products/{id}/qr             QR PNG
//	GET    /feeder/products/{id}/qr-card        printable card PNG
//	GET    /feeder/products/{id}/texture        bookmatched texture
//	GET    /feeder/products/{id}/mockups        room previews
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/api/image-proxy", h.ImageProxy)

	r.Route("/feeder", func(r chi.Router) {
		r.Use(middleware.Session(h.sessions))
		r.Use(middleware.AllowContentTypes("application/json", "multipart/form-data"))

		r.Post("/session", h.Login)
		r.With(middleware.RequireSession).Delete("/session", h.Logout)

		r.Get("/area", h.Area)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.With(middleware.RequireSession).Post("/", h.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProduct)
				r.With(middleware.RequireSession).Post("/", h.UpdateProduct)
				r.With(middleware.RequireSession).Patch("/price", h.UpdatePrice)
				r.Get("/qr", h.QRCode)
				r.Get("/qr-card", h.QRCard)
				r.Get("/texture", h.Texture)
				r.Get("/mockups", h.Mockups)
			})
		})
	})

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, dto.HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

// origin is the origin encoded in product URLs for this request.
func (h *Handler) origin(r *http.Request) string {
	return qr.ResolveOrigin(r, h.fallbackOrigin)
}

func respond[T any](w http.ResponseWriter, r *http.Request, status int, data T) {
	res := dto.NewSuccessResponse(data)
	if id := middleware.GetRequestID(r.Context()); id != "" {
		res.Meta = &dto.ResponseMeta{RequestID: id}
	}
	render.Status(r, status)
	render.JSON(w, r, res)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	res := dto.NewErrorResponse[any](code, message)
	if id := middleware.GetRequestID(r.Context()); id != "" {
		res.Meta = &dto.ResponseMeta{RequestID: id}
	}
	render.Status(r, status)
	render.JSON(w, r, res)
}

// userMessager is implemented by errors that carry a message from the backend.
type userMessager interface {
	UserMessage() string
}

// fail maps service and repository errors to user-visible responses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		fields := make([]dto.ValidationError, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			fields = append(fields, dto.ValidationError{Field: f.Field, Message: f.Err.Error()})
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, dto.NewValidationErrorResponse[any](fields))
		return
	}

	backendMessage := ""
	var um userMessager
	if errors.As(err, &um) {
		backendMessage = um.UserMessage()
	}
	orDefault := func(msg string) string {
		if backendMessage != "" {
			return backendMessage
		}
		return msg
	}

	log := h.log.WithContext(r.Context())

	switch {
	case errors.Is(err, repository.ErrInvalidInput), errors.Is(err, entity.ErrInvalidProductID):
		respondError(w, r, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case repository.IsNotFoundError(err):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", orDefault("Product not found"))
	case errors.Is(err, service.ErrNoImage):
		respondError(w, r, http.StatusNotFound, "NO_IMAGE", "This product has no image yet")
	case errors.Is(err, repository.ErrUnauthorized):
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", orDefault("Your session has expired, please log in again"))
	case errors.Is(err, repository.ErrRequestRejected):
		respondError(w, r, http.StatusBadRequest, "REJECTED", orDefault("The catalog rejected the request"))
	case repository.IsTransportError(err):
		log.Warn("Catalog backend error", "error", err)
		respondError(w, r, http.StatusBadGateway, "BACKEND_UNAVAILABLE", "Could not reach the catalog, please try again")
	case errors.Is(err, service.ErrCardTemplate):
		respondError(w, r, http.StatusBadGateway, "CARD_TEMPLATE_UNAVAILABLE", "The QR card template could not be loaded")
	default:
		log.Error("Unhandled error", "error", err, "path", r.URL.Path)
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

// notFound handles 404 responses.
func notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
}

// methodNotAllowed handles 405 responses.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The requested method is not allowed for this resource")
}
