package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/hapkiduki/stone-feeder/pkg/logger"
)

// SessionCookie is the cookie carrying the feeder session ID.
const SessionCookie = "feeder_session"

type sessionKey struct{}

// SessionResolver looks up an open session by ID.
type SessionResolver interface {
	Get(id string) (*entity.Session, error)
}

// SessionFromContext returns the session attached by Session, or nil.
func SessionFromContext(ctx context.Context) *entity.Session {
	sess, _ := ctx.Value(sessionKey{}).(*entity.Session)
	return sess
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *entity.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, sess)
	return context.WithValue(ctx, logger.SessionIDKey, sess.ID.String())
}

// Session resolves the caller's session from the feeder_session cookie or an
// "Authorization: Bearer <session id>" header. Requests without a valid
// session pass through anonymously; handlers that need one use RequireSession.
func Session(store SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionID(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := store.Get(id)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession answers 401 when Session attached no session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Please log in again"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
