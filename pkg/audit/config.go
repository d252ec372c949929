package audit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	SinkLog         = "log"
	SinkCloudEvents = "cloudevents"
)

// Config holds audit buffering and sink settings.
type Config struct {
	Sink        string `toml:"sink"`
	Target      string `toml:"target"`
	Source      string `toml:"source"`
	BufferSize  int    `toml:"buffer_size"`
	SendTimeout string `toml:"send_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Sink        string
	Target      string
	Source      string
	BufferSize  string
	SendTimeout string
}

// SendTimeoutDuration returns SendTimeout as a time.Duration.
func (c *Config) SendTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.SendTimeout)
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
	if overlay.Sink != "" {
		c.Sink = overlay.Sink
	}
	if overlay.Target != "" {
		c.Target = overlay.Target
	}
	if overlay.Source != "" {
		c.Source = overlay.Source
	}
	if overlay.BufferSize != 0 {
		c.BufferSize = overlay.BufferSize
	}
	if overlay.SendTimeout != "" {
		c.SendTimeout = overlay.SendTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Sink == "" {
		c.Sink = SinkLog
	}
	if c.Source == "" {
		c.Source = "courier"
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1024
	}
	if c.SendTimeout == "" {
		c.SendTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Sink != "" {
		if v := os.Getenv(env.Sink); v != "" {
			c.Sink = v
		}
	}
	if env.Target != "" {
		if v := os.Getenv(env.Target); v != "" {
			c.Target = v
		}
	}
	if env.Source != "" {
		if v := os.Getenv(env.Source); v != "" {
			c.Source = v
		}
	}
	if env.BufferSize != "" {
		if v := os.Getenv(env.BufferSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.BufferSize = n
			}
		}
	}
	if env.SendTimeout != "" {
		if v := os.Getenv(env.SendTimeout); v != "" {
			c.SendTimeout = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Sink {
	case SinkLog:
	case SinkCloudEvents:
		if c.Target == "" {
			return fmt.Errorf("target required for %s sink", SinkCloudEvents)
		}
	default:
		return fmt.Errorf("unknown sink: %s", c.Sink)
	}
	d, err := time.ParseDuration(c.SendTimeout)
	if err != nil {
		return fmt.Errorf("invalid send_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("send_timeout must be positive")
	}
	return nil
}
