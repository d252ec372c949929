package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/courier/pkg/handlers"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != "abc" {
		t.Errorf("body = %v", body)
	}
}

func TestRespondErrorCode(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondErrorCode(rec, discardLogger(), http.StatusRequestEntityTooLarge, "file_too_large", errors.New("file exceeds maximum upload size"))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	body := decode(t, rec)
	if body.Code != "file_too_large" || body.Error != "file exceeds maximum upload size" {
		t.Errorf("body = %+v", body)
	}
}

func TestRespondInternalHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondInternal(rec, discardLogger(), errors.New("invalid status transition: document abc"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	body := decode(t, rec)
	if body.Error != handlers.GenericMessage || body.Code != "" {
		t.Errorf("body = %+v", body)
	}
}
