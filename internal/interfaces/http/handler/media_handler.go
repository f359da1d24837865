package handler

import (
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hapkiduki/stone-feeder/internal/application/dto"
	"github.com/hapkiduki/stone-feeder/internal/interfaces/http/middleware"
)

// QRCode serves the QR code PNG of the product's public page.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	data, err := h.media.QRCode(h.origin(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeImage(w, "image/png", data)
}

// QRCard serves the printable QR card as a PNG download.
func (h *Handler) QRCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.media.QRCard(r.Context(), middleware.SessionFromContext(r.Context()), h.origin(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": card.FileName}))
	writeImage(w, "image/png", card.PNG)
}

// Texture returns the bookmatched texture of the product's primary image.
func (h *Handler) Texture(w http.ResponseWriter, r *http.Request) {
	tex, err := h.media.Texture(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, dto.TextureResponse{
		URL:      tex.URL,
		TileSize: tex.TileSize,
		Strategy: string(tex.Strategy),
		Fallback: tex.Fallback,
	})
}

// Mockups returns the room previews once every room photo has been loaded.
func (h *Handler) Mockups(w http.ResponseWriter, r *http.Request) {
	views, err := h.media.Mockups(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]dto.MockupResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.MockupResponse{Name: v.Name, URL: v.DataURL, Placeholder: v.Placeholder})
	}
	respond(w, r, http.StatusOK, out)
}

// ImageProxy fetches a remote http(s) image on behalf of the UI. A failed
// fetch is answered with the placeholder image, flagged by X-Image-Fallback.
func (h *Handler) ImageProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_URL", "url must be an absolute http(s) URL")
		return
	}

	asset, fallback, err := h.media.ProxyImage(r.Context(), u.String())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if fallback {
		w.Header().Set("X-Image-Fallback", "true")
		w.Header().Set("Cache-Control", "no-store")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(asset.Data)
}

func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
