package tokenx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/geohop/pkg/cryptox"
	"github.com/aussiebroadwan/geohop/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints session tokens. Every token is signed with its own random
// secret which is returned to the caller and never kept. Nobody can verify
// the signature afterwards, Validate only checks structure, expiry and the
// session id.
type Issuer struct {
	// Duration is how long a token stays valid. Must be at least one second
	// because iat/exp are carried with second precision.
	Duration time.Duration

	// Now is the clock used for iat. Defaults to time.Now.
	Now func() time.Time
}

// NewIssuer returns an Issuer minting tokens valid for d.
func NewIssuer(d time.Duration) *Issuer {
	return &Issuer{Duration: d, Now: time.Now}
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

// Generate mints a token for a brand new session.
func (i *Issuer) Generate(region, endpoint string) (Token, []byte, error) {
	sid, err := idx.New()
	if err != nil {
		return Token{}, nil, fmt.Errorf("tokenx: generate session id: %w", err)
	}
	return i.Reissue(region, endpoint, sid.String())
}

// Reissue mints a token for an existing session id. Used on refresh so the
// relay keeps recognising the session.
func (i *Issuer) Reissue(region, endpoint, sessionID string) (Token, []byte, error) {
	if i.Duration < time.Second {
		return Token{}, nil, fmt.Errorf("tokenx: token duration %s is below one second", i.Duration)
	}
	if sessionID == "" {
		return Token{}, nil, errors.New("tokenx: empty session id")
	}

	now := i.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.Duration)),
		},
		Region:    region,
		Endpoint:  endpoint,
		SessionID: sessionID,
	}

	secret, err := cryptox.GenerateSecret(cryptox.SecretSize256)
	if err != nil {
		return Token{}, nil, fmt.Errorf("tokenx: %w", err)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := t.SignedString(secret)
	if err != nil {
		return Token{}, nil, fmt.Errorf("tokenx: sign: %w", err)
	}

	return Token{
		Raw:       raw,
		Header:    t.Header,
		Claims:    claims,
		Signature: raw[strings.LastIndexByte(raw, '.')+1:],
	}, secret, nil
}
