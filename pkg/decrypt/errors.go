package decrypt

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched with errors.Is. Every *Error unwraps to exactly
// one of ErrUnavailable or ErrFailed.
var (
	ErrUnavailable     = errors.New("decryption unavailable")
	ErrFailed          = errors.New("decryption failed")
	ErrMalformedOutput = errors.New("malformed decryption output")
	ErrStillEncrypted  = errors.New("decryption output is still encrypted")
)

// Kind classifies a decryption failure. It is assigned once, where the
// capability is invoked.
type Kind int

const (
	KindUnavailable Kind = iota
	KindToolError
	KindTimeout
	KindMalformedOutput
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindToolError:
		return "tool_error"
	case KindTimeout:
		return "timeout"
	case KindMalformedOutput:
		return "malformed_output"
	default:
		return "unknown"
	}
}

// Error describes a failed decryption.
type Error struct {
	Kind   Kind
	Method string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", e.sentinel(), e.Method, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

// Code returns the stable machine-readable reason.
func (e *Error) Code() string {
	if e.Kind == KindUnavailable {
		return "decryption_unavailable"
	}
	return "decryption_failed"
}

// Name returns the error class name reported to telemetry.
func (e *Error) Name() string {
	if e.Kind == KindUnavailable {
		return "DecryptionUnavailable"
	}
	return "DecryptionFailed"
}

func (e *Error) sentinel() error {
	if e.Kind == KindUnavailable {
		return ErrUnavailable
	}
	return ErrFailed
}

// MapHTTPStatus maps decryption errors to HTTP status codes.
// Unavailable is a deployment condition, so it maps to a retryable 503.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrFailed) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
