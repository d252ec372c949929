package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/courier/pkg/pagination"
	"github.com/JaimeStill/courier/pkg/upload"
)

var paginationEnv = &pagination.Env{
	DefaultPageSize: "COURIER_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "COURIER_PAGINATION_MAX_PAGE_SIZE",
}

var uploadEnv = &upload.Env{
	MaxSize:       "COURIER_UPLOAD_MAX_SIZE",
	AcceptedTypes: "COURIER_UPLOAD_ACCEPTED_TYPES",
}

// APIConfig holds partner API routing, upload limits, and pagination settings.
type APIConfig struct {
	BasePath   string            `toml:"base_path"`
	Upload     upload.Config     `toml:"upload"`
	Pagination pagination.Config `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested upload and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.Upload.Finalize(uploadEnv); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}

	c.Upload.Merge(&overlay.Upload)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("COURIER_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
}
