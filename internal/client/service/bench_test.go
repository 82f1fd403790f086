package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/aussiebroadwan/geohop/internal/client/service"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/aussiebroadwan/geohop/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// timedConnector spends a scripted amount of clock time per connect.
type timedConnector struct {
	clock       *manualClock
	durations   []time.Duration
	fail        map[int]error
	calls       int
	disconnects int
}

func (c *timedConnector) Connect(context.Context, string) (*relaysdk.ConnectResponse, error) {
	c.calls++
	c.clock.Advance(c.durations[c.calls-1])
	if err := c.fail[c.calls]; err != nil {
		return nil, err
	}
	return &relaysdk.ConnectResponse{Success: true}, nil
}

func (c *timedConnector) Disconnect() { c.disconnects++ }

func TestBenchmarkRunnerAggregates(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	conn := &timedConnector{
		clock: clock,
		durations: []time.Duration{
			10 * time.Millisecond,
			20 * time.Millisecond,
			time.Second,
			40 * time.Millisecond,
			50 * time.Millisecond,
		},
		fail: map[int]error{
			3: fmt.Errorf("%w: relay said no", domain.ErrHandshakeFailed),
		},
	}

	runner := &service.BenchmarkRunner{
		Manager: conn,
		Request: func(context.Context) error {
			clock.Advance(5 * time.Millisecond)
			return nil
		},
		Clock:  clock,
		Logger: slogx.Discard(),
	}

	report, err := runner.Run(context.Background(), "US", 5)
	require.NoError(t, err)

	require.Equal(t, "US", report.Region)
	require.Equal(t, 5, report.Iterations)
	require.Equal(t, 4, report.Successes)
	require.InDelta(t, 0.8, report.SuccessRate, 1e-9)
	require.Equal(t, 30*time.Millisecond, report.AvgConnect)
	require.Equal(t, 5*time.Millisecond, report.AvgRequest)

	require.False(t, report.Results[2].OK())
	require.ErrorIs(t, report.Results[2].Err, domain.ErrHandshakeFailed)
	require.Equal(t, 4, conn.disconnects)
}

func TestBenchmarkRunnerStopsOnUnknownRegion(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	conn := &timedConnector{
		clock:     clock,
		durations: []time.Duration{0, 0, 0},
		fail:      map[int]error{1: domain.ErrUnknownRegion},
	}

	runner := &service.BenchmarkRunner{Manager: conn, Clock: clock}
	report, err := runner.Run(context.Background(), "JP", 3)

	require.ErrorIs(t, err, domain.ErrUnknownRegion)
	require.Equal(t, 1, report.Iterations)
	require.Equal(t, 1, conn.calls)
}

func TestBenchmarkRunnerWithConnectionManager(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.hs.SetFunc(func(_ context.Context, call int, _ string) error {
		if call == 3 {
			return &relaysdk.StatusError{StatusCode: 502}
		}
		return nil
	})

	runner := &service.BenchmarkRunner{Manager: h.mgr, Clock: h.clock, Logger: slogx.Discard()}
	report, err := runner.Run(context.Background(), "US", 5)
	require.NoError(t, err)

	require.Equal(t, 4, report.Successes)
	require.InDelta(t, 0.8, report.SuccessRate, 1e-9)
	require.ErrorIs(t, report.Results[2].Err, domain.ErrHandshakeFailed)

	require.Equal(t, domain.StateDisconnected, h.mgr.State())
	require.Empty(t, h.clock.Pending())
}
