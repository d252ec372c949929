package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/courier/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=courierstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/courierstore;"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAzure(t *testing.T) {
	cfg := &storage.Config{
		Provider:         storage.ProviderAzure,
		ContainerName:    "documents",
		ConnectionString: azuriteConnString,
	}

	sys, err := storage.New(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := sys.URL("a/b.pdf")
	if !strings.HasPrefix(got, "http://127.0.0.1:10000/") || !strings.HasSuffix(got, "/documents/a/b.pdf") {
		t.Errorf("URL() = %s", got)
	}
	if strings.Contains(strings.TrimPrefix(got, "http://"), "//") {
		t.Errorf("URL() has an empty path segment: %s", got)
	}
}

func TestNewAzureInvalidConnectionString(t *testing.T) {
	cfg := &storage.Config{
		Provider:         storage.ProviderAzure,
		ContainerName:    "documents",
		ConnectionString: "not-a-connection-string",
	}

	if _, err := storage.New(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatal("expected error for invalid connection string")
	}
}

func TestNewGCSWithEmulator(t *testing.T) {
	cfg := &storage.Config{
		Provider:      storage.ProviderGCS,
		ContainerName: "courier-docs",
		Endpoint:      "http://127.0.0.1:4443/storage/v1/",
	}

	sys, err := storage.New(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := sys.URL("k.pdf"); got != "gs://courier-docs/k.pdf" {
		t.Errorf("URL() = %s", got)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory("documents")

	if err := m.Upload(ctx, "docs/a.pdf", strings.NewReader("%PDF-1.7"), "application/pdf"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if err := m.Upload(ctx, "docs/a.pdf", strings.NewReader("again"), "application/pdf"); !errors.Is(err, storage.ErrExists) {
		t.Errorf("second Upload() error = %v, want ErrExists", err)
	}

	rc, err := m.Download(ctx, "docs/a.pdf")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(data, []byte("%PDF-1.7")) {
		t.Errorf("downloaded %q", data)
	}

	if err := m.Delete(ctx, "docs/a.pdf"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := m.Delete(ctx, "docs/a.pdf"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := m.Download(ctx, "docs/a.pdf"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() after delete error = %v, want ErrNotFound", err)
	}
}

func TestKeyValidation(t *testing.T) {
	m := storage.NewMemory("documents")

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"empty", "", storage.ErrEmptyKey},
		{"traversal", "docs/../secrets", storage.ErrInvalidKey},
		{"leading traversal", "../x", storage.ErrInvalidKey},
		{"dots in name", "docs/a..b.pdf", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Upload(context.Background(), tt.key, strings.NewReader("x"), "text/plain")
			if !errors.Is(err, tt.want) {
				t.Errorf("Upload(%q) error = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrExists, http.StatusConflict},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{errors.New("network down"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := storage.Config{ConnectionString: "conn"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Provider != storage.ProviderAzure || cfg.ContainerName != "documents" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_PROVIDER", "gcs")
		t.Setenv("TEST_STORAGE_CONTAINER", "uploads")

		cfg := storage.Config{}
		err := cfg.Finalize(&storage.Env{Provider: "TEST_STORAGE_PROVIDER", ContainerName: "TEST_STORAGE_CONTAINER"})
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Provider != storage.ProviderGCS || cfg.ContainerName != "uploads" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("azure service url suffices", func(t *testing.T) {
		cfg := storage.Config{ServiceURL: "https://acct.blob.core.windows.net/"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
	})

	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{"azure without credentials", storage.Config{}, "connection_string or service_url required"},
		{"unknown provider", storage.Config{Provider: "s3"}, "unknown provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{ContainerName: "documents", ConnectionString: "base-conn"}
	base.Merge(&storage.Config{ConnectionString: "overlay-conn"})

	if base.ContainerName != "documents" || base.ConnectionString != "overlay-conn" {
		t.Errorf("merged = %+v", base)
	}
}
