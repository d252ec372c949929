package audit

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// EventType names an audit event. Consumers key dashboards and alerts on
// these values, so they are part of the external contract.
type EventType string

const (
	GetByIDRequest  EventType = "GET_BY_ID_REQUEST"
	GetByIDSuccess  EventType = "GET_BY_ID_SUCCESS"
	GetByIDNotFound EventType = "GET_BY_ID_NOT_FOUND"
	GetByIDError    EventType = "GET_BY_ID_ERROR"

	DecryptionStart        EventType = "DECRYPTION_START"
	DecryptionSuccess      EventType = "DECRYPTION_SUCCESS"
	DecryptionError        EventType = "DECRYPTION_ERROR"
	DecryptionAvailability EventType = "DECRYPTION_AVAILABILITY"

	IngestAccepted          EventType = "INGEST_ACCEPTED"
	IngestRejected          EventType = "INGEST_REJECTED"
	StatusTransition        EventType = "STATUS_TRANSITION"
	StatusTransitionInvalid EventType = "STATUS_TRANSITION_INVALID"
)

// IsError reports whether the event describes a failure.
func (t EventType) IsError() bool {
	return strings.HasSuffix(string(t), "_ERROR") ||
		strings.HasSuffix(string(t), "_INVALID") ||
		strings.HasSuffix(string(t), "_REJECTED")
}

// Attributes carries the event payload.
type Attributes map[string]any

// Event is a single recorded audit entry.
type Event struct {
	ID         string     `json:"id"`
	Type       EventType  `json:"type"`
	Time       time.Time  `json:"time"`
	Attributes Attributes `json:"attributes"`
}

// Fallback values used when an error event carries no error.
const UnknownError = "Unknown error"

// ErrorAttributes returns the stable error fields attached to every error event.
// A nil err yields the fallback values rather than missing keys.
func ErrorAttributes(err error) Attributes {
	attrs := Attributes{
		"error":     UnknownError,
		"errorCode": "",
		"errorName": "",
		"stack":     "",
	}
	if err == nil {
		return attrs
	}

	if msg := err.Error(); msg != "" {
		attrs["error"] = msg
	}

	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		attrs["errorCode"] = coded.Code()
	}

	attrs["errorName"] = fmt.Sprintf("%T", err)
	var named interface{ Name() string }
	if errors.As(err, &named) {
		attrs["errorName"] = named.Name()
	}

	var traced interface{ StackTrace() string }
	if errors.As(err, &traced) {
		attrs["stack"] = traced.StackTrace()
	}

	return attrs
}

// With returns a copy of a merged with b. Keys in b win.
func (a Attributes) With(b Attributes) Attributes {
	out := make(Attributes, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}
