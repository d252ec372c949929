// Package handlers provides JSON response helpers shared by HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// GenericMessage is returned in place of internal error details.
const GenericMessage = "internal server error"

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RespondJSON writes v as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RespondError logs err and writes its message as a JSON error body.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	RespondErrorCode(w, logger, status, "", err)
}

// RespondErrorCode logs err and writes its message with a stable reason code.
// Server errors are logged at error level, client errors at warn.
func RespondErrorCode(w http.ResponseWriter, logger *slog.Logger, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "code", code, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "code", code, "error", err)
	}
	RespondJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

// RespondInternal logs err and writes a generic 500 body that reveals nothing
// about the cause.
func RespondInternal(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	RespondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: GenericMessage})
}
