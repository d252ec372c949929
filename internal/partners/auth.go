package partners

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/courier/pkg/handlers"
)

// Header trusts identity headers set by an upstream gateway that has already
// authenticated the caller.
type Header struct {
	partnerHeader string
	roleHeader    string
	adminValue    string
}

// NewHeader creates a header authenticator from cfg.
func NewHeader(cfg *Config) *Header {
	return &Header{
		partnerHeader: cfg.PartnerHeader,
		roleHeader:    cfg.RoleHeader,
		adminValue:    cfg.AdminRoleValue,
	}
}

func (h *Header) Authenticate(r *http.Request) (Requester, error) {
	id := strings.TrimSpace(r.Header.Get(h.partnerHeader))
	if id == "" {
		return Requester{}, fmt.Errorf("%w: missing %s header", ErrUnauthenticated, h.partnerHeader)
	}
	return Requester{
		PartnerID: id,
		Role:      ParseRole(strings.TrimSpace(r.Header.Get(h.roleHeader)), h.adminValue),
	}, nil
}

// OIDC verifies a bearer ID token and reads the partner and role from its claims.
type OIDC struct {
	verifier     *oidc.IDTokenVerifier
	partnerClaim string
	roleClaim    string
	adminValue   string
}

// NewOIDC discovers the issuer's configuration and signing keys.
func NewOIDC(ctx context.Context, cfg *Config) (*OIDC, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider %s: %w", cfg.Issuer, err)
	}
	return NewOIDCWithVerifier(provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}), cfg), nil
}

// NewOIDCWithVerifier creates an OIDC authenticator around an existing verifier.
func NewOIDCWithVerifier(verifier *oidc.IDTokenVerifier, cfg *Config) *OIDC {
	return &OIDC{
		verifier:     verifier,
		partnerClaim: cfg.PartnerClaim,
		roleClaim:    cfg.RoleClaim,
		adminValue:   cfg.AdminRoleValue,
	}
}

func (o *OIDC) Authenticate(r *http.Request) (Requester, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return Requester{}, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	token, err := o.verifier.Verify(r.Context(), raw)
	if err != nil {
		return Requester{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return Requester{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	id, _ := claims[o.partnerClaim].(string)
	if id == "" {
		return Requester{}, fmt.Errorf("%w: token has no %s claim", ErrUnauthenticated, o.partnerClaim)
	}

	return Requester{PartnerID: id, Role: o.role(claims[o.roleClaim])}, nil
}

// role accepts either a single string or an array of roles.
func (o *OIDC) role(claim any) Role {
	switch v := claim.(type) {
	case string:
		return ParseRole(v, o.adminValue)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && ParseRole(s, o.adminValue) == RoleAdmin {
				return RoleAdmin
			}
		}
	}
	return RoleNormal
}

// New builds the authenticator selected by cfg.Mode.
func New(ctx context.Context, cfg *Config) (Authenticator, error) {
	switch cfg.Mode {
	case ModeOIDC:
		return NewOIDC(ctx, cfg)
	case ModeHeader:
		return NewHeader(cfg), nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.Mode)
	}
}

// Middleware authenticates every request and stores the Requester in its
// context. Requests without a usable identity receive 401.
func Middleware(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("system", "partners")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := auth.Authenticate(r)
			if err != nil {
				handlers.RespondErrorCode(w, logger, http.StatusUnauthorized, "unauthenticated", ErrUnauthenticated)
				logger.Debug("authentication failed", "error", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), req)))
		})
	}
}
