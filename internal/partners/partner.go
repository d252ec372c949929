// Package partners resolves the identity of the partner organization behind
// a request. Credential issuance happens elsewhere; this package only reads
// an identity that an upstream gateway or identity provider has asserted.
package partners

import (
	"context"
	"errors"
	"net/http"
)

// Role grants visibility. Admins see every partner's documents.
type Role string

const (
	RoleNormal Role = "normal"
	RoleAdmin  Role = "admin"
)

// ErrUnauthenticated indicates the request carries no usable identity.
var ErrUnauthenticated = errors.New("partner identity required")

// Requester is the authenticated partner making a request.
type Requester struct {
	PartnerID string `json:"partner_id"`
	Role      Role   `json:"role"`
}

// IsAdmin reports whether the requester bypasses ownership checks.
func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// Authenticator extracts a Requester from an incoming request.
type Authenticator interface {
	Authenticate(r *http.Request) (Requester, error)
}

type requesterKey struct{}

// WithRequester returns a copy of ctx carrying req.
func WithRequester(ctx context.Context, req Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, req)
}

// FromContext returns the Requester stored by the authentication middleware.
func FromContext(ctx context.Context) (Requester, bool) {
	req, ok := ctx.Value(requesterKey{}).(Requester)
	return req, ok
}

// ParseRole maps a claimed role to a Role. Anything other than admin is normal.
func ParseRole(s string, adminValue string) Role {
	if s != "" && s == adminValue {
		return RoleAdmin
	}
	return RoleNormal
}
