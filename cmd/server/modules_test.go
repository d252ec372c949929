package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/courier/internal/infrastructure"
	"github.com/JaimeStill/courier/pkg/lifecycle"
)

type readyFlag bool

func (f *readyFlag) Ready() bool { return bool(*f) }

func TestProbes(t *testing.T) {
	lc := lifecycle.New()
	var db readyFlag
	lc.Require("database", &db)

	router := buildRouter(&infrastructure.Infrastructure{Lifecycle: lc})

	get := func(path string) (int, map[string]any) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		return rec.Code, body
	}

	if code, _ := get("/healthz"); code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", code)
	}

	code, body := get("/readyz")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", code)
	}
	var pending []string
	for _, v := range body["pending"].([]any) {
		pending = append(pending, v.(string))
	}
	if !slices.Equal(pending, []string{"database", "startup"}) {
		t.Errorf("pending = %v", pending)
	}

	lc.WaitForStartup()
	db = true

	if code, body := get("/readyz"); code != http.StatusOK || body["status"] != "ready" {
		t.Errorf("readyz = %d %v, want 200 ready", code, body)
	}
}
