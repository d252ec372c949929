package upload

import (
	"fmt"
	"mime"
	"os"
	"strings"

	"github.com/JaimeStill/courier/pkg/formatting"
)

// DefaultAcceptedTypes lists the media types accepted when none are configured.
var DefaultAcceptedTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/tiff",
	"image/webp",
	"image/bmp",
}

// Config holds upload size and media type limits.
type Config struct {
	MaxSize       string   `toml:"max_size"`
	AcceptedTypes []string `toml:"accepted_types"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	MaxSize       string
	AcceptedTypes string
}

// MaxSizeBytes returns MaxSize as a byte count.
func (c *Config) MaxSizeBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxSize)
	return n
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.MaxSize != "" {
		c.MaxSize = overlay.MaxSize
	}
	if overlay.AcceptedTypes != nil {
		c.AcceptedTypes = overlay.AcceptedTypes
	}
}

func (c *Config) loadDefaults() {
	if c.MaxSize == "" {
		c.MaxSize = "20MB"
	}
	if len(c.AcceptedTypes) == 0 {
		c.AcceptedTypes = DefaultAcceptedTypes
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.MaxSize != "" {
		if v := os.Getenv(env.MaxSize); v != "" {
			c.MaxSize = v
		}
	}
	if env.AcceptedTypes != "" {
		if v := os.Getenv(env.AcceptedTypes); v != "" {
			types := strings.Split(v, ",")
			c.AcceptedTypes = make([]string, 0, len(types))
			for _, t := range types {
				if trimmed := strings.TrimSpace(t); trimmed != "" {
					c.AcceptedTypes = append(c.AcceptedTypes, trimmed)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	n, err := formatting.ParseBytes(c.MaxSize)
	if err != nil {
		return fmt.Errorf("invalid max_size: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	for _, t := range c.AcceptedTypes {
		if _, _, err := mime.ParseMediaType(t); err != nil {
			return fmt.Errorf("invalid accepted type %q: %w", t, err)
		}
	}
	return nil
}
