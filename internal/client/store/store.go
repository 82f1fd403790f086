package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: not found")

// BenchmarkRun is one persisted benchmark report.
type BenchmarkRun struct {
	ID          string
	Region      string
	StartedAt   time.Time
	Iterations  int
	Successes   int
	SuccessRate float64
	AvgConnect  time.Duration
	AvgRequest  time.Duration
	CreatedAt   time.Time

	// Results is only populated by GetRun.
	Results []IterationRecord
}

// IterationRecord is one benchmark iteration. Error is empty on success.
type IterationRecord struct {
	N       int
	Connect time.Duration
	Request time.Duration
	Error   string
}

// History persists benchmark reports. Concrete drivers (sqlite) implement
// it.
type History interface {
	// SaveRun stores run and its iterations atomically. An empty ID is
	// filled in.
	SaveRun(ctx context.Context, run *BenchmarkRun) error

	// GetRun returns a run with its iterations or ErrNotFound.
	GetRun(ctx context.Context, id string) (BenchmarkRun, error)

	// ListRuns returns the newest runs first. An empty region lists all
	// regions. limit <= 0 means no limit.
	ListRuns(ctx context.Context, region string, limit int) ([]BenchmarkRun, error)

	ApplyMigrations() error
	Ping(ctx context.Context) error
	Close() error
}
