package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
)

// Connector is the slice of ConnectionManager the benchmark drives.
type Connector interface {
	Connect(ctx context.Context, region string) (*relaysdk.ConnectResponse, error)
	Disconnect()
}

// RequestFunc is the request timed while a benchmark session is up.
type RequestFunc func(ctx context.Context) error

// Iteration is one connect/request/disconnect cycle.
type Iteration struct {
	N       int
	Connect time.Duration
	Request time.Duration
	Err     error
}

// OK reports whether the iteration counts as a success.
func (it Iteration) OK() bool { return it.Err == nil }

// BenchmarkReport aggregates a benchmark run. Averages cover successful
// iterations only; SuccessRate is over all of them.
type BenchmarkReport struct {
	Region      string
	StartedAt   time.Time
	Iterations  int
	Successes   int
	SuccessRate float64
	AvgConnect  time.Duration
	AvgRequest  time.Duration
	Results     []Iteration
}

// BenchmarkRunner drives sequential connect/disconnect cycles against one
// region.
type BenchmarkRunner struct {
	Manager Connector

	// Request is timed after each successful connect. When nil the request
	// phase is skipped and recorded as zero.
	Request RequestFunc

	// Pause between iterations.
	Pause time.Duration

	Clock  Clock
	Logger *slog.Logger
}

// Run performs n iterations. Connect or request failures are recorded and
// the run goes on; an unknown region, an unusable schedule window or a
// cancelled context end the run early with an error.
func (b *BenchmarkRunner) Run(ctx context.Context, region string, n int) (BenchmarkReport, error) {
	clock := b.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	log := b.Logger
	if log == nil {
		log = slog.Default()
	}

	report := BenchmarkReport{
		Region:    region,
		StartedAt: clock.Now(),
		Results:   make([]Iteration, 0, n),
	}

	for i := 1; i <= n; i++ {
		if i > 1 && b.Pause > 0 {
			if err := sleepCtx(ctx, b.Pause); err != nil {
				return report.finish(), err
			}
		}

		it := b.iteration(ctx, clock, region, i)
		report.Results = append(report.Results, it)
		log.Info("benchmark iteration",
			"iteration", i,
			"connect", it.Connect,
			"request", it.Request,
			"ok", it.OK(),
			"error", it.Err,
		)

		if fatal(ctx, it.Err) {
			return report.finish(), it.Err
		}
	}

	return report.finish(), nil
}

func (b *BenchmarkRunner) iteration(ctx context.Context, clock Clock, region string, n int) Iteration {
	it := Iteration{N: n}

	start := clock.Now()
	_, err := b.Manager.Connect(ctx, region)
	it.Connect = clock.Now().Sub(start)
	if err != nil {
		it.Err = err
		return it
	}
	defer b.Manager.Disconnect()

	if b.Request != nil {
		start = clock.Now()
		it.Err = b.Request(ctx)
		it.Request = clock.Now().Sub(start)
	}
	return it
}

func (r BenchmarkReport) finish() BenchmarkReport {
	r.Iterations = len(r.Results)

	var connect, request time.Duration
	for _, it := range r.Results {
		if !it.OK() {
			continue
		}
		r.Successes++
		connect += it.Connect
		request += it.Request
	}

	if r.Iterations > 0 {
		r.SuccessRate = float64(r.Successes) / float64(r.Iterations)
	}
	if r.Successes > 0 {
		r.AvgConnect = connect / time.Duration(r.Successes)
		r.AvgRequest = request / time.Duration(r.Successes)
	}
	return r
}

// fatal reports whether err should stop the whole run rather than count as a
// failed iteration.
func fatal(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return ctx.Err() != nil ||
		errors.Is(err, domain.ErrUnknownRegion) ||
		errors.Is(err, domain.ErrInvalidScheduleWindow)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
