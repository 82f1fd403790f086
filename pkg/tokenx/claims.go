package tokenx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultDuration is the session token lifetime when nothing is configured.
const DefaultDuration = 5 * time.Minute

// Claims is the session token payload. Only iat and exp are taken from the
// registered set, everything else is relay specific.
type Claims struct {
	jwt.RegisteredClaims

	// Region code the session was opened in, e.g. "US".
	Region string `json:"region"`

	// Endpoint is the relay address the session is bound to.
	Endpoint string `json:"endpoint"`

	// SessionID is the ULID both sides use to refer to the session.
	SessionID string `json:"sid"`
}

// IssuedAtTime returns iat, or the zero time if unset.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp, or the zero time if unset.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Token is a minted session token split into its three wire segments.
type Token struct {
	// Raw is the compact "header.payload.signature" form sent to the relay.
	Raw string

	Header    map[string]any
	Claims    Claims
	Signature string
}

func (t Token) SessionID() string    { return t.Claims.SessionID }
func (t Token) ExpiresAt() time.Time { return t.Claims.ExpiresAtTime() }
func (t Token) IssuedAt() time.Time  { return t.Claims.IssuedAtTime() }
