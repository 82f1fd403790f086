package relaysdk

import "time"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string    `json:"status"`
	Region         string    `json:"region,omitempty"`
	Version        string    `json:"version,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	ActiveSessions int       `json:"activeSessions"`
}

// ConnectRequest is the body of POST /connect.
type ConnectRequest struct {
	Action    string `json:"action"`
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

// ConnectResponse is the handshake acknowledgement: what the relay saw of
// the client, i.e. the apparent external identity once tunnelled.
type ConnectResponse struct {
	Success   bool      `json:"success"`
	SessionID string    `json:"sessionId"`
	IP        string    `json:"ip"`
	Country   string    `json:"country"`
	Region    string    `json:"region,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// InfoResponse is the body of GET /ip and GET /info.
type InfoResponse struct {
	IP        string    `json:"ip"`
	Country   string    `json:"country"`
	Region    string    `json:"region,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the JSON error body relays send with non-200 codes.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
