package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/courier/internal/api"
	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/internal/infrastructure"
	"github.com/JaimeStill/courier/pkg/module"
)

func setup(t *testing.T) (*config.Config, *api.Runtime, *api.Domain) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("COURIER_STORAGE_PROVIDER", "memory")
	t.Setenv("COURIER_ENGINE_TOKEN", "engine-secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	infra, err := infrastructure.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	runtime := api.NewRuntime(cfg, infra)
	return cfg, runtime, api.NewDomain(runtime)
}

func TestNewRuntime(t *testing.T) {
	_, runtime, _ := setup(t)

	if runtime.Pagination.DefaultPageSize <= 0 {
		t.Errorf("pagination default page size: got %d", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Storage == nil {
		t.Error("runtime storage is nil")
	}
	if runtime.Auth == nil {
		t.Error("runtime auth is nil")
	}
}

func TestNewDomain(t *testing.T) {
	_, _, domain := setup(t)
	if domain.Documents == nil {
		t.Fatal("Documents system is nil")
	}
}

func TestModules(t *testing.T) {
	cfg, runtime, domain := setup(t)

	router := module.NewRouter()
	router.Mount(api.NewModule(cfg, runtime, domain))
	router.Mount(api.NewEngineModule(cfg, runtime, domain))

	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		body   string
		want   int
	}{
		{
			name:   "partner api requires identity",
			method: "GET",
			path:   "/api/documents",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "engine requires token",
			method: "POST",
			path:   "/engine/events",
			body:   "{}",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "engine rejects wrong token",
			method: "POST",
			path:   "/engine/events",
			header: map[string]string{"Authorization": "Bearer nope"},
			body:   "{}",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "engine decodes event",
			method: "POST",
			path:   "/engine/events",
			header: map[string]string{"Authorization": "Bearer engine-secret", "Content-Type": "text/plain"},
			body:   "not an event",
			want:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestModulePrefixes(t *testing.T) {
	cfg, runtime, domain := setup(t)

	if m := api.NewModule(cfg, runtime, domain); m.Prefix() != "/api" {
		t.Errorf("api prefix = %s, want /api", m.Prefix())
	}
	if m := api.NewEngineModule(cfg, runtime, domain); m.Prefix() != "/engine" {
		t.Errorf("engine prefix = %s, want /engine", m.Prefix())
	}
}
