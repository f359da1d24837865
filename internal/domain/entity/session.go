package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyToken is returned when a session is opened without a backend token.
var ErrEmptyToken = errors.New("session token cannot be empty")

// Session carries the backend credentials of a logged-in admin user.
// It is created on login, destroyed on logout and passed explicitly to
// every data-access call.
type Session struct {
	// ID identifies the session towards the browser (cookie value).
	ID uuid.UUID `json:"id"`

	// Token is the bearer token issued by the backend.
	Token string `json:"-"`

	// User is an optional display name for logs.
	User string `json:"user,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewSession opens a session for a backend token.
func NewSession(token, user string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	return &Session{
		ID:        uuid.New(),
		Token:     token,
		User:      strings.TrimSpace(user),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Authorization returns the Authorization header value for backend calls,
// or an empty string for a nil session.
func (s *Session) Authorization() string {
	if s == nil || s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}
