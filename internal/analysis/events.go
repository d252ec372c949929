// Package analysis receives finalize callbacks from the external analysis
// engine. The engine posts CloudEvents; each one moves a document out of
// PROCESSING through the document lifecycle.
package analysis

import (
	"context"
	"errors"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvents type attributes accepted from the engine.
const (
	TypeCompleted = "courier.analysis.completed"
	TypeFailed    = "courier.analysis.failed"
)

var (
	ErrInvalidEvent = errors.New("invalid analysis event")
	ErrUnknownType  = errors.New("unknown analysis event type")
	ErrRetry        = errors.New("finalize unavailable, retry later")
)

// Completed is the data of a courier.analysis.completed event.
type Completed struct {
	DocumentID  string `json:"document_id"`
	ArtifactURL string `json:"artifact_url"`
}

// Failed is the data of a courier.analysis.failed event.
type Failed struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// Finalizer applies terminal transitions. documents.System satisfies it.
type Finalizer interface {
	MarkAnalyzed(ctx context.Context, id uuid.UUID, artifactURL string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// NewCompletedEvent builds the event the engine sends after a successful run.
func NewCompletedEvent(source string, id uuid.UUID, artifactURL string) (cloudevents.Event, error) {
	return newEvent(source, TypeCompleted, Completed{DocumentID: id.String(), ArtifactURL: artifactURL})
}

// NewFailedEvent builds the event the engine sends after a failed run.
func NewFailedEvent(source string, id uuid.UUID, reason string) (cloudevents.Event, error) {
	return newEvent(source, TypeFailed, Failed{DocumentID: id.String(), Reason: reason})
}

func newEvent(source, eventType string, data any) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(source)
	e.SetType(eventType)
	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, fmt.Errorf("encode %s data: %w", eventType, err)
	}
	return e, nil
}

// Apply dispatches a validated event to f.
func Apply(ctx context.Context, f Finalizer, e cloudevents.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	switch e.Type() {
	case TypeCompleted:
		var data Completed
		if err := e.DataAs(&data); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		id, err := parseID(data.DocumentID)
		if err != nil {
			return err
		}
		return f.MarkAnalyzed(ctx, id, data.ArtifactURL)

	case TypeFailed:
		var data Failed
		if err := e.DataAs(&data); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		id, err := parseID(data.DocumentID)
		if err != nil {
			return err
		}
		return f.MarkFailed(ctx, id, data.Reason)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownType, e.Type())
	}
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: document_id %q", ErrInvalidEvent, s)
	}
	return id, nil
}
