package domain

import (
	"time"

	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
)

// ProbeStatus classifies a single health probe.
type ProbeStatus string

const (
	ProbeHealthy ProbeStatus = "healthy"
	ProbeError   ProbeStatus = "error"
	ProbeTimeout ProbeStatus = "timeout"
	ProbeInvalid ProbeStatus = "invalid"
)

// ProbeResult is the outcome of one probe against one endpoint. It is built
// once and never mutated.
type ProbeResult struct {
	Endpoint string
	Status   ProbeStatus
	Latency  time.Duration
	Metadata *relaysdk.HealthResponse // set only when Status is ProbeHealthy
	Err      error                    // cause for non-healthy results, informational
}

// Healthy reports whether the endpoint may be selected.
func (r ProbeResult) Healthy() bool { return r.Status == ProbeHealthy }
