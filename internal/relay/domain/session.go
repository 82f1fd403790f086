package domain

import "time"

// Session is a client session registered by a successful handshake. It
// lives until its token expires or a refreshed token extends it.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"` // last accepted token, compared on /proxy
	Region    string    `json:"region"`
	Endpoint  string    `json:"endpoint"`
	ClientIP  string    `json:"client_ip"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
