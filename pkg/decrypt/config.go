package decrypt

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config holds decryption capability ordering and limits.
type Config struct {
	Methods       []string `toml:"methods"`
	QPDFPath      string   `toml:"qpdf_path"`
	Password      string   `toml:"password"`
	Timeout       string   `toml:"timeout"`
	MaxConcurrent int      `toml:"max_concurrent"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Methods       string
	QPDFPath      string
	Password      string
	Timeout       string
	MaxConcurrent string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
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
	if overlay.Methods != nil {
		c.Methods = overlay.Methods
	}
	if overlay.QPDFPath != "" {
		c.QPDFPath = overlay.QPDFPath
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxConcurrent != 0 {
		c.MaxConcurrent = overlay.MaxConcurrent
	}
}

func (c *Config) loadDefaults() {
	if len(c.Methods) == 0 {
		c.Methods = []string{MethodQPDF, MethodPDFCPU}
	}
	if c.QPDFPath == "" {
		c.QPDFPath = "qpdf"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Methods != "" {
		if v := os.Getenv(env.Methods); v != "" {
			methods := strings.Split(v, ",")
			c.Methods = make([]string, 0, len(methods))
			for _, m := range methods {
				if trimmed := strings.TrimSpace(m); trimmed != "" {
					c.Methods = append(c.Methods, trimmed)
				}
			}
		}
	}
	if env.QPDFPath != "" {
		if v := os.Getenv(env.QPDFPath); v != "" {
			c.QPDFPath = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.MaxConcurrent != "" {
		if v := os.Getenv(env.MaxConcurrent); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.MaxConcurrent = n
			}
		}
	}
}

func (c *Config) validate() error {
	if len(c.Methods) == 0 {
		return fmt.Errorf("at least one method required")
	}
	for _, m := range c.Methods {
		if !slices.Contains(knownMethods, m) {
			return fmt.Errorf("unknown method: %s", m)
		}
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
