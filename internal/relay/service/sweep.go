package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/geohop/internal/metrics"
	"github.com/aussiebroadwan/geohop/internal/relay/store"
)

// SweepService periodically drops expired sessions so the session table
// does not grow without bound.
type SweepService struct {
	Store    store.Sessions
	Logger   *slog.Logger
	Interval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweepService creates a sweeper. A non-positive interval defaults to
// one minute.
func NewSweepService(st store.Sessions, logger *slog.Logger, interval time.Duration) *SweepService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &SweepService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *SweepService) Start() {
	go s.run()
	s.Logger.Info("session sweeper started", "interval", s.Interval)
}

// Stop shuts the worker down and waits for an in-progress sweep to finish.
func (s *SweepService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("session sweeper stopped")
}

func (s *SweepService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep removes expired sessions once and returns how many were removed.
func (s *SweepService) Sweep(ctx context.Context) int {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	n, err := s.Store.DeleteExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
		return 0
	}
	metrics.RelaySweptSessions.Add(float64(n))

	if live, err := s.Store.Count(ctx); err == nil {
		metrics.RelayActiveSessions.Set(float64(live))
	}

	if n > 0 {
		s.Logger.Info("expired sessions swept", "removed", n)
	} else {
		s.Logger.Debug("no expired sessions")
	}
	return n
}
