package upload

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable reason codes reported to clients and audit.
const (
	CodeFileTooLarge         = "file_too_large"
	CodeUnsupportedMediaType = "unsupported_media_type"
	CodeTransport            = "upload_transport_error"
)

// Validation errors. Both are user-correctable.
var (
	ErrFileTooLarge         = errors.New("file exceeds maximum upload size")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// TransportError reports a failure reading the upload stream. It is transient
// and safe to retry.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upload transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Code() string { return CodeTransport }

func (e *TransportError) Name() string { return "UploadTransportError" }

// Code returns the stable reason code for err, or "" when err is not an
// upload error.
func Code(err error) string {
	var te *TransportError
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return CodeFileTooLarge
	case errors.Is(err, ErrUnsupportedMediaType):
		return CodeUnsupportedMediaType
	case errors.As(err, &te):
		return CodeTransport
	default:
		return ""
	}
}

// MapHTTPStatus maps upload errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var te *TransportError
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &te):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
