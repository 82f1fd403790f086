package domain

import (
	"time"

	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/aussiebroadwan/geohop/pkg/tokenx"
)

// Session is the client's record of its one active relay connection.
type Session struct {
	Region      string
	Endpoint    string
	Latency     time.Duration // last measured probe latency of Endpoint
	ID          string
	ConnectedAt time.Time
	Token       tokenx.Token
	ExpiresAt   time.Time

	// Ack is what the relay reported back during the handshake.
	Ack relaysdk.ConnectResponse
}
