package tokenx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed       = errors.New("tokenx: malformed token")
	ErrExpired         = errors.New("tokenx: token expired")
	ErrSessionMismatch = errors.New("tokenx: session id mismatch")
)

// Validate decodes raw and checks it belongs to expectedSessionID and has not
// expired. The signature is NOT verified: the secret it was signed with was
// discarded at mint time.
func Validate(raw, expectedSessionID string) (Claims, error) {
	return ValidateAt(raw, expectedSessionID, time.Now())
}

// ValidateAt is Validate against an explicit clock reading.
func ValidateAt(raw, expectedSessionID string, now time.Time) (Claims, error) {
	if strings.Count(raw, ".") != 2 {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.SessionID == "" || claims.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing sid or exp", ErrMalformed)
	}

	if now.After(claims.ExpiresAt.Time) {
		return Claims{}, ErrExpired
	}
	if claims.SessionID != expectedSessionID {
		return Claims{}, ErrSessionMismatch
	}

	return claims, nil
}
