package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Secret sizes in bytes.
const (
	// SecretSize256 matches the HS256 block output, the minimum we sign with.
	SecretSize256 = 32
	// SecretSize512 is used when a caller wants extra headroom.
	SecretSize512 = 64
)

// GenerateSecret returns size bytes from the system CSPRNG. Session tokens
// are signed with a secret produced here and then thrown away.
func GenerateSecret(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("secret size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate random secret: %w", err)
	}
	return buf, nil
}

// EncodeSecret renders a secret as base64url without padding, suitable for
// debug logging.
func EncodeSecret(secret []byte) string {
	return base64.RawURLEncoding.EncodeToString(secret)
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// The relay session table keys token bindings by fingerprint so raw bearer
// tokens never sit in redis.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
