package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/aussiebroadwan/geohop/internal/metrics"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
)

// DefaultProbeTimeout bounds a single probe when none is configured.
const DefaultProbeTimeout = 3 * time.Second

// HealthChecker is the part of the relay client a probe needs.
type HealthChecker interface {
	Health(ctx context.Context, endpoint string) (*relaysdk.HealthResponse, error)
}

// HealthProbe performs one timed health check. It never returns an error:
// every failure is folded into the result status. There are no retries.
type HealthProbe struct {
	Client  HealthChecker
	Timeout time.Duration
}

// Probe checks endpoint and resolves within the probe timeout.
func (p *HealthProbe) Probe(ctx context.Context, endpoint string) domain.ProbeResult {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	health, err := p.Client.Health(probeCtx, endpoint)
	latency := time.Since(start)

	res := domain.ProbeResult{Endpoint: endpoint, Latency: latency, Err: err}
	switch {
	case err == nil:
		res.Status = domain.ProbeHealthy
		res.Metadata = health
		metrics.ProbeLatency.Observe(latency.Seconds())
	case errors.Is(probeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.Status = domain.ProbeTimeout
		res.Latency = timeout
	case errors.Is(err, relaysdk.ErrMalformedResponse):
		res.Status = domain.ProbeInvalid
	default:
		res.Status = domain.ProbeError
	}

	metrics.ProbesTotal.WithLabelValues(string(res.Status)).Inc()
	return res
}
