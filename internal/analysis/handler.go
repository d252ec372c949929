package analysis

import (
	"errors"
	"log/slog"
	"net/http"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/JaimeStill/courier/internal/documents"
	"github.com/JaimeStill/courier/pkg/handlers"
	"github.com/JaimeStill/courier/pkg/routes"
)

// Handler receives engine callbacks over HTTP.
type Handler struct {
	finalizer Finalizer
	logger    *slog.Logger
}

// NewHandler creates a Handler that applies events through f.
func NewHandler(f Finalizer, logger *slog.Logger) *Handler {
	return &Handler{
		finalizer: f,
		logger:    logger.With("handler", "analysis"),
	}
}

// Routes returns the route group definition for engine callbacks.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/events",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Receive},
		},
	}
}

// Receive accepts a binary or structured mode CloudEvent.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	e, err := cloudevents.NewEventFromHTTPRequest(r)
	if err != nil {
		handlers.RespondErrorCode(w, h.logger, http.StatusBadRequest, "invalid_event", ErrInvalidEvent)
		h.logger.Debug("decode event failed", "error", err)
		return
	}

	if err := Apply(r.Context(), h.finalizer, *e); err != nil {
		switch status := MapHTTPStatus(err); status {
		case http.StatusInternalServerError:
			handlers.RespondInternal(w, h.logger, err)
		case http.StatusServiceUnavailable:
			h.logger.Error("finalize failed", "type", e.Type(), "event_id", e.ID(), "error", err)
			handlers.RespondJSON(w, status, handlers.ErrorResponse{Error: ErrRetry.Error(), Code: "retry"})
		default:
			handlers.RespondErrorCode(w, h.logger, status, "invalid_event", err)
		}
		return
	}

	h.logger.Info("analysis event applied", "type", e.Type(), "event_id", e.ID())
	w.WriteHeader(http.StatusNoContent)
}

// MapHTTPStatus maps callback errors to HTTP status codes. InvalidTransition
// is a consistency fault and is never described to the caller.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidEvent), errors.Is(err, ErrUnknownType):
		return http.StatusBadRequest
	case errors.Is(err, documents.ErrInvalidTransition):
		return http.StatusInternalServerError
	default:
		return http.StatusServiceUnavailable
	}
}
