package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/hapkiduki/stone-feeder/internal/application/dto"
	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/internal/interfaces/http/middleware"
)

// Login opens a session for a backend token and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", "The request body is not valid JSON")
		return
	}

	sess, err := h.sessions.Open(req.Token, req.User)
	if errors.Is(err, entity.ErrEmptyToken) {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, dto.NewValidationErrorResponse[any]([]dto.ValidationError{
			{Field: "token", Message: err.Error()},
		}))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.ID.String(),
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	h.log.WithContext(middleware.WithSession(r.Context(), sess)).Info("Session opened", "user", sess.User)
	respond(w, r, http.StatusCreated, dto.SessionResponse{ID: sess.ID.String(), User: sess.User})
}

// Logout destroys the caller's session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	h.sessions.Close(sess.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	h.log.WithContext(r.Context()).Info("Session closed")
	w.WriteHeader(http.StatusNoContent)
}
