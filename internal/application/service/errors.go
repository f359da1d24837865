// Package service contains the feeder use cases: catalog reads and writes
// against the backend, and the media derived from products (QR codes,
// printable cards, bookmatched textures, room mockups).
package service

import (
	"errors"
	"strings"

	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
)

// Service errors.
var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNoImage is returned when a product has no image to build media from.
	ErrNoImage = errors.New("product has no image")

	// ErrCardTemplate is returned when the QR card template cannot be loaded.
	ErrCardTemplate = errors.New("qr card template unavailable")

	// ErrInvalidFlag is returned for a boolean form field that is not true or false.
	ErrInvalidFlag = errors.New("must be true or false")
)

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields []entity.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
