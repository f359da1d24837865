// Package repository contains the repository interfaces and related errors.
package repository

import "errors"

// Repository errors describe why a round trip to the catalog backend failed.
// They travel from the data access layer to the HTTP layer, which turns
// them into user-visible messages.
var (
	// ErrProductNotFound is returned when the backend has no product for an ID.
	ErrProductNotFound = errors.New("product not found")

	// ErrBackendUnavailable is returned when the backend cannot be reached.
	ErrBackendUnavailable = errors.New("catalog backend unavailable")

	// ErrRequestRejected is returned when the backend answers with success=false
	// or a non-success status.
	ErrRequestRejected = errors.New("catalog backend rejected the request")

	// ErrMalformedResponse is returned when the response carries no success flag
	// or cannot be decoded.
	ErrMalformedResponse = errors.New("malformed catalog backend response")

	// ErrUnauthorized is returned when the backend refuses the session token.
	ErrUnauthorized = errors.New("not authorized by catalog backend")

	// ErrInvalidInput is returned when repository receives invalid input.
	ErrInvalidInput = errors.New("invalid input provided")
)

// IsNotFoundError checks if the error is a not found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsTransportError checks if the error came from the round trip itself rather
// than from the request content.
//
// Parameters:
//   - err: error to check
//
// Returns:
//   - bool: true for unreachable backends and undecodable responses
func IsTransportError(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) ||
		errors.Is(err, ErrMalformedResponse)
}
