package services

import "errors"

// Service-level error taxonomy. The boundary layer maps these onto HTTP
// status codes with errors.Is; everything else is treated as an
// infrastructure failure.
var (
	// ErrNotAuthorized: the caller is not a participant/owner of the
	// resource. A missing chat during SendMessage/GetChatMessages collapses
	// into this same rejection; the two cases are indistinguishable to the
	// caller.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound: the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation: malformed input, rejected before any state change.
	ErrValidation = errors.New("invalid input")

	// ErrConflict: the operation would violate a uniqueness or state
	// invariant.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials: login failure; deliberately indistinct about
	// which of email/password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
