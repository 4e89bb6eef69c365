// Package response holds the shared HTTP response envelopes and the mapping
// from service errors to status codes.
package response

import (
	"errors"
	"net/http"

	"marketplace-chat/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFor translates a service error into an HTTP status code. Unknown
// errors map to 500 so internal detail never leaks into a response body.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message picks the body string for an error. Internal errors get a generic
// message; expected service errors surface their own text.
func Message(err error) string {
	if StatusFor(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
