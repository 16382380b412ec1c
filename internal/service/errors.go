package service

import "errors"

// Sentinel errors returned by the services. Handlers map each one to an HTTP status;
// callers compare with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrQuotaExceeded   = errors.New("storage quota exceeded")
	ErrConversion      = errors.New("document could not be converted")
	ErrMissingArtifact = errors.New("printable artifact missing")
	ErrOwnership       = errors.New("document not owned by caller")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid order state")
	ErrPrinter         = errors.New("printer failure")
)
