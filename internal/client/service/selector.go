package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"golang.org/x/sync/errgroup"
)

// Prober checks a single endpoint.
type Prober interface {
	Probe(ctx context.Context, endpoint string) domain.ProbeResult
}

// EndpointSelector ranks the endpoints of a region by probe latency.
type EndpointSelector struct {
	Prober Prober
	Logger *slog.Logger
}

// Rank probes every endpoint of region concurrently and waits for all of
// them. Results are returned in configuration order.
func (s *EndpointSelector) Rank(ctx context.Context, region domain.Region) []domain.ProbeResult {
	results := make([]domain.ProbeResult, len(region.Endpoints))

	var g errgroup.Group
	for i, endpoint := range region.Endpoints {
		g.Go(func() error {
			results[i] = s.Prober.Probe(ctx, endpoint)
			return nil
		})
	}
	_ = g.Wait() // probes never fail

	return results
}

// Select returns the lowest latency healthy endpoint of region. Ties go to
// the endpoint configured first.
func (s *EndpointSelector) Select(ctx context.Context, region domain.Region) (domain.ProbeResult, error) {
	results := s.Rank(ctx, region)

	healthy := make([]domain.ProbeResult, 0, len(results))
	for _, r := range results {
		if r.Healthy() {
			healthy = append(healthy, r)
			continue
		}
		if s.Logger != nil {
			s.Logger.Debug("endpoint unhealthy",
				"region", region.Code,
				"endpoint", r.Endpoint,
				"status", r.Status,
				"error", r.Err,
			)
		}
	}

	if len(healthy) == 0 {
		return domain.ProbeResult{}, fmt.Errorf("%w in region %s (%d probed)",
			domain.ErrNoHealthyEndpoint, region.Code, len(results))
	}

	slices.SortStableFunc(healthy, func(a, b domain.ProbeResult) int {
		return cmp.Compare(a.Latency, b.Latency)
	})
	return healthy[0], nil
}
