package service_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/aussiebroadwan/geohop/internal/client/service"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/aussiebroadwan/geohop/pkg/tokenx"
)

// epoch is on a whole second: token iat/exp carry second precision.
var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// manualClock only moves when Advance is called. Due callbacks run on the
// caller's goroutine.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock { return &manualClock{now: epoch} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) service.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	slices.SortFunc(due, func(a, b *manualTimer) int { return a.at.Compare(b.at) })
	for _, t := range due {
		t.f()
	}
}

// Pending returns the deadlines of armed timers.
func (c *manualClock) Pending() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Time
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.at)
		}
	}
	return out
}

// stubProber answers from a table; unknown endpoints are errors.
type stubProber struct {
	mu      sync.Mutex
	results map[string]domain.ProbeResult
}

func newStubProber() *stubProber {
	return &stubProber{results: map[string]domain.ProbeResult{}}
}

func (p *stubProber) Set(endpoint string, status domain.ProbeStatus, latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[endpoint] = domain.ProbeResult{Endpoint: endpoint, Status: status, Latency: latency}
}

func (p *stubProber) Probe(_ context.Context, endpoint string) domain.ProbeResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.results[endpoint]; ok {
		return r
	}
	return domain.ProbeResult{Endpoint: endpoint, Status: domain.ProbeError, Err: errors.New("unreachable")}
}

// stubHandshaker acknowledges every handshake unless fn says otherwise.
type stubHandshaker struct {
	mu    sync.Mutex
	calls []string // endpoints, in call order
	fn    func(ctx context.Context, call int, endpoint string) error
}

func (h *stubHandshaker) Connect(ctx context.Context, endpoint, token, sessionID string) (*relaysdk.ConnectResponse, error) {
	h.mu.Lock()
	h.calls = append(h.calls, endpoint)
	call := len(h.calls)
	fn := h.fn
	h.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, call, endpoint); err != nil {
			return nil, err
		}
	}
	return &relaysdk.ConnectResponse{
		Success:   true,
		SessionID: sessionID,
		IP:        "203.0.113.7",
		Country:   "XX",
	}, nil
}

func (h *stubHandshaker) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

func (h *stubHandshaker) SetFunc(fn func(ctx context.Context, call int, endpoint string) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fn = fn
}

// flakyMinter is a real issuer whose Reissue can be made to fail or to
// block until released.
type flakyMinter struct {
	*tokenx.Issuer

	mu          sync.Mutex
	failReissue bool
	entered     chan struct{}
	release     chan struct{}
}

// HoldReissue makes the next Reissue signal entered and wait for release.
func (m *flakyMinter) HoldReissue() (entered <-chan struct{}, release chan<- struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entered = make(chan struct{}, 1)
	m.release = make(chan struct{})
	return m.entered, m.release
}

func (m *flakyMinter) FailReissue(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReissue = v
}

func (m *flakyMinter) Reissue(region, endpoint, sessionID string) (tokenx.Token, []byte, error) {
	m.mu.Lock()
	fail := m.failReissue
	entered, release := m.entered, m.release
	m.entered, m.release = nil, nil
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	if fail {
		return tokenx.Token{}, nil, errors.New("entropy source unavailable")
	}
	return m.Issuer.Reissue(region, endpoint, sessionID)
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) Record(e domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) Types() []domain.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) All() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

// hookHandler is a slog handler that runs fn when a record with msg is
// logged.
type hookHandler struct {
	msg string

	mu sync.Mutex
	fn func()
}

func (h *hookHandler) On(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fn = fn
}

func (h *hookHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *hookHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	fn := h.fn
	h.mu.Unlock()
	if r.Message == h.msg && fn != nil {
		fn()
	}
	return nil
}

func (h *hookHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *hookHandler) WithGroup(string) slog.Handler      { return h }
