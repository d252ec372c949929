package partners

import (
	"fmt"
	"os"
)

// Authentication modes.
const (
	ModeHeader = "header"
	ModeOIDC   = "oidc"
)

// Config selects how partner identity is resolved.
type Config struct {
	Mode           string `toml:"mode"`
	PartnerHeader  string `toml:"partner_header"`
	RoleHeader     string `toml:"role_header"`
	Issuer         string `toml:"issuer"`
	ClientID       string `toml:"client_id"`
	PartnerClaim   string `toml:"partner_claim"`
	RoleClaim      string `toml:"role_claim"`
	AdminRoleValue string `toml:"admin_role_value"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Mode           string
	Issuer         string
	ClientID       string
	PartnerClaim   string
	RoleClaim      string
	AdminRoleValue string
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
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.PartnerHeader != "" {
		c.PartnerHeader = overlay.PartnerHeader
	}
	if overlay.RoleHeader != "" {
		c.RoleHeader = overlay.RoleHeader
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.PartnerClaim != "" {
		c.PartnerClaim = overlay.PartnerClaim
	}
	if overlay.RoleClaim != "" {
		c.RoleClaim = overlay.RoleClaim
	}
	if overlay.AdminRoleValue != "" {
		c.AdminRoleValue = overlay.AdminRoleValue
	}
}

func (c *Config) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModeHeader
	}
	if c.PartnerHeader == "" {
		c.PartnerHeader = "X-Partner-ID"
	}
	if c.RoleHeader == "" {
		c.RoleHeader = "X-Partner-Role"
	}
	if c.PartnerClaim == "" {
		c.PartnerClaim = "partner_id"
	}
	if c.RoleClaim == "" {
		c.RoleClaim = "role"
	}
	if c.AdminRoleValue == "" {
		c.AdminRoleValue = string(RoleAdmin)
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Mode, &c.Mode)
	set(env.Issuer, &c.Issuer)
	set(env.ClientID, &c.ClientID)
	set(env.PartnerClaim, &c.PartnerClaim)
	set(env.RoleClaim, &c.RoleClaim)
	set(env.AdminRoleValue, &c.AdminRoleValue)
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeHeader:
		return nil
	case ModeOIDC:
		if c.Issuer == "" {
			return fmt.Errorf("issuer required for oidc mode")
		}
		if c.ClientID == "" {
			return fmt.Errorf("client_id required for oidc mode")
		}
		return nil
	default:
		return fmt.Errorf("unknown mode: %s", c.Mode)
	}
}
