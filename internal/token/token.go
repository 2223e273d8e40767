// Package token decodes the bearer tokens issued by the library API.
// Tokens are never verified here: the API owns signature checks, and the
// decoded identity is only trusted for UI gating.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the role claim carried by a token.
type Role string

const (
	// RoleAdmin manages the catalog and approves loan requests.
	RoleAdmin Role = "admin"
	// RoleUser browses the catalog and requests loans.
	RoleUser Role = "usuario"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// DefaultDisplayName is used when the token carries no nombre claim.
const DefaultDisplayName = "Usuario"

var (
	// ErrMalformed is returned when a token cannot be decoded into claims.
	ErrMalformed = errors.New("malformed token")
)

// Claims are the token attributes the portal consumes.
type Claims struct {
	Subject     string
	Role        Role
	DisplayName string
	ExpiresAt   time.Time
}

// Expired reports whether the token is expired at now. A token expiring
// exactly at now is expired.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// TTL returns the time left before expiration, or zero.
func (c Claims) TTL(now time.Time) time.Duration {
	if c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

type payload struct {
	jwt.RegisteredClaims
	Rol    string `json:"rol"`
	Nombre string `json:"nombre,omitempty"`
}

var parser = jwt.NewParser()

// Parse decodes the payload segment of raw. It never panics; every failure
// is reported as an error wrapping ErrMalformed.
func Parse(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	var p payload
	if _, _, err := parser.ParseUnverified(raw, &p); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if p.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sub claim", ErrMalformed)
	}
	role := Role(p.Rol)
	if !role.Valid() {
		return Claims{}, fmt.Errorf("%w: unknown rol claim %q", ErrMalformed, p.Rol)
	}
	if p.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}

	name := p.Nombre
	if name == "" {
		name = DefaultDisplayName
	}

	return Claims{
		Subject:     p.Subject,
		Role:        role,
		DisplayName: name,
		ExpiresAt:   p.ExpiresAt.Time,
	}, nil
}
