package config

import (
	"fmt"
	"os"
	"strings"
)

// EngineConfig holds the callback surface used by the analysis engine.
type EngineConfig struct {
	BasePath string `toml:"base_path"`
	// Token is the shared bearer token the engine presents. Empty disables
	// the check, which is only acceptable behind a private network boundary.
	Token string `toml:"token"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/engine"
	}
	if v := os.Getenv("COURIER_ENGINE_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("COURIER_ENGINE_TOKEN"); v != "" {
		c.Token = v
	}

	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path must start with /: %s", c.BasePath)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
}
