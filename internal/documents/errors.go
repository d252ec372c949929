package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/courier/pkg/decrypt"
	"github.com/JaimeStill/courier/pkg/upload"
)

// Domain errors for document operations.
var (
	// ErrNotFound covers both a missing document and one the requester does
	// not own.
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("document already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidKind       = errors.New("invalid document kind")
	ErrBadRequest        = errors.New("malformed request")
	ErrStorage           = errors.New("document storage unavailable")
)

// Stable reason codes for domain errors.
const (
	CodeNotFound   = "not_found"
	CodeBadRequest = "bad_request"
	CodeStorage    = "storage_unavailable"
)

// MapHTTPStatus maps ingestion and retrieval errors to HTTP status codes.
// InvalidTransition is an internal consistency fault and maps to 500.
func MapHTTPStatus(err error) int {
	var tooLarge *http.MaxBytesError
	var de *decrypt.Error
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case upload.Code(err) != "":
		return upload.MapHTTPStatus(err)
	case errors.As(err, &de):
		return decrypt.MapHTTPStatus(err)
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable reason code reported alongside an error response.
func Code(err error) string {
	var tooLarge *http.MaxBytesError
	var de *decrypt.Error
	switch {
	case errors.As(err, &tooLarge):
		return upload.CodeFileTooLarge
	case upload.Code(err) != "":
		return upload.Code(err)
	case errors.As(err, &de):
		return de.Code()
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrBadRequest):
		return CodeBadRequest
	case errors.Is(err, ErrStorage):
		return CodeStorage
	default:
		return ""
	}
}
