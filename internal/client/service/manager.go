package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/geohop/internal/client/domain"
	"github.com/aussiebroadwan/geohop/internal/metrics"
	"github.com/aussiebroadwan/geohop/pkg/relaysdk"
	"github.com/aussiebroadwan/geohop/pkg/slogx"
	"github.com/aussiebroadwan/geohop/pkg/tokenx"
)

// DefaultHandshakeTimeout bounds the connect handshake when none is
// configured.
const DefaultHandshakeTimeout = 10 * time.Second

// Selector picks the endpoint to connect to.
type Selector interface {
	Select(ctx context.Context, region domain.Region) (domain.ProbeResult, error)
}

// Minter issues session tokens. *tokenx.Issuer satisfies it.
type Minter interface {
	Generate(region, endpoint string) (tokenx.Token, []byte, error)
	Reissue(region, endpoint, sessionID string) (tokenx.Token, []byte, error)
}

// Handshaker performs the connect exchange with a relay. *relaysdk.Client
// satisfies it.
type Handshaker interface {
	Connect(ctx context.Context, endpoint, token, sessionID string) (*relaysdk.ConnectResponse, error)
}

// Options configures a ConnectionManager.
type Options struct {
	Regions    domain.Regions
	Selector   Selector
	Minter     Minter
	Handshaker Handshaker

	// RefreshBuffer is how long before token expiry the refresh fires.
	RefreshBuffer    time.Duration
	HandshakeTimeout time.Duration

	Clock  Clock
	Logger *slog.Logger

	// OnEvent receives lifecycle events synchronously, in transition order.
	// It must not call back into the manager.
	OnEvent func(domain.Event)
}

// ConnectionManager holds at most one relay session and keeps its token
// fresh.
//
// Connect, SwitchRegion, RefreshToken and refresh timer firings are
// serialized by opMu. Disconnect skips opMu so it can preempt an in-flight
// connect or refresh: it bumps the attempt generation and cancels the
// attempt, and the attempt discards its result once it notices.
//
// emitMu is held from a state commit until its event is delivered, so
// observers see events in transition order. Lock order is emitMu, then mu.
type ConnectionManager struct {
	opts Options
	log  *slog.Logger

	opMu   sync.Mutex
	emitMu sync.Mutex

	mu         sync.Mutex
	state      domain.State
	session    *domain.Session
	timer      Timer
	timerSeq   uint64
	generation uint64
	cancel     context.CancelFunc
}

// NewConnectionManager validates opts and returns an idle manager.
func NewConnectionManager(opts Options) (*ConnectionManager, error) {
	switch {
	case opts.Selector == nil:
		return nil, errors.New("connection manager: selector is required")
	case opts.Minter == nil:
		return nil, errors.New("connection manager: minter is required")
	case opts.Handshaker == nil:
		return nil, errors.New("connection manager: handshaker is required")
	case opts.RefreshBuffer < 0:
		return nil, fmt.Errorf("%w: negative refresh buffer", domain.ErrInvalidScheduleWindow)
	}

	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}

	return &ConnectionManager{
		opts:  opts,
		log:   opts.Logger,
		state: domain.StateDisconnected,
	}, nil
}

// State returns the current lifecycle state.
func (m *ConnectionManager) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the active session.
func (m *ConnectionManager) Session() (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return domain.Session{}, false
	}
	return *m.session, true
}

// Validate checks the current token structurally against the session id.
func (m *ConnectionManager) Validate() (tokenx.Claims, error) {
	sess, ok := m.Session()
	if !ok {
		return tokenx.Claims{}, domain.ErrNotConnected
	}
	return tokenx.ValidateAt(sess.Token.Raw, sess.ID, m.opts.Clock.Now())
}

// Connect selects the best endpoint of region, mints a token, performs the
// handshake and arms the refresh timer. It returns the relay's
// acknowledgement.
func (m *ConnectionManager) Connect(ctx context.Context, region string) (*relaysdk.ConnectResponse, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.connectLocked(ctx, region)
}

// SwitchRegion disconnects from the current region, if any, then connects to
// region.
func (m *ConnectionManager) SwitchRegion(ctx context.Context, region string) (*relaysdk.ConnectResponse, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if _, ok := m.opts.Regions.Lookup(region); !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRegion, region)
	}

	m.mu.Lock()
	if m.session != nil {
		m.state = domain.StateSwitching
	}
	m.mu.Unlock()

	m.Disconnect()
	return m.connectLocked(ctx, region)
}

// Disconnect cancels the refresh timer and any in-flight connect, and drops
// the session. Calling it while disconnected is a no-op.
func (m *ConnectionManager) Disconnect() {
	m.emitMu.Lock()
	sess := m.teardown()
	if sess != nil {
		m.emit(domain.EventDisconnected, *sess, nil)
	}
	m.emitMu.Unlock()

	if sess != nil {
		m.log.Info("disconnected", "region", sess.Region, "endpoint", sess.Endpoint, "session_id", sess.ID)
	}
}

// RefreshToken reissues the session token client side and re-arms the
// timer. Without a session it does nothing. If minting fails it tries one
// reconnect to the same region and reports ErrSessionLost when that fails
// too.
func (m *ConnectionManager) RefreshToken(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *ConnectionManager) connectLocked(ctx context.Context, code string) (*relaysdk.ConnectResponse, error) {
	region, ok := m.opts.Regions.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRegion, code)
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.session != nil {
		m.mu.Unlock()
		return nil, domain.ErrAlreadyConnected
	}
	m.generation++
	gen := m.generation
	m.cancel = cancel
	m.state = domain.StateConnecting
	m.mu.Unlock()

	log := m.log.With("region", code)
	log.Info("connect_started", "candidates", len(region.Endpoints))

	best, err := m.opts.Selector.Select(attemptCtx, region)
	if err != nil {
		return nil, m.fail(gen, log, fmt.Errorf("%w: %w", domain.ErrConnectFailed, err))
	}
	log = log.With("endpoint", best.Endpoint)

	tok, _, err := m.opts.Minter.Generate(region.Code, best.Endpoint)
	if err != nil {
		return nil, m.fail(gen, log, fmt.Errorf("%w: mint token: %w", domain.ErrConnectFailed, err))
	}
	log = log.With("session_id", tok.SessionID())

	delay, err := m.refreshDelay(tok)
	if err != nil {
		return nil, m.fail(gen, log, err)
	}

	hctx, hcancel := context.WithTimeout(attemptCtx, m.opts.HandshakeTimeout)
	ack, err := m.opts.Handshaker.Connect(slogx.WithSession(hctx, tok.SessionID()), best.Endpoint, tok.Raw, tok.SessionID())
	hcancel()
	if err == nil && !ack.Success {
		err = errors.New("relay did not acknowledge the session")
	}
	if err != nil {
		return nil, m.fail(gen, log, fmt.Errorf("%w: %s: %w", domain.ErrHandshakeFailed, best.Endpoint, err))
	}

	now := m.opts.Clock.Now()
	sess := domain.Session{
		Region:      region.Code,
		Endpoint:    best.Endpoint,
		Latency:     best.Latency,
		ID:          tok.SessionID(),
		ConnectedAt: now,
		Token:       tok,
		ExpiresAt:   tok.ExpiresAt(),
		Ack:         *ack,
	}

	m.emitMu.Lock()
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.emitMu.Unlock()
		log.Info("connect attempt discarded, superseded")
		return nil, domain.ErrAttemptSuperseded
	}
	m.session = &sess
	m.state = domain.StateConnected
	m.cancel = nil
	m.armLocked(delay)
	m.mu.Unlock()
	m.emit(domain.EventConnected, sess, nil)
	m.emitMu.Unlock()

	metrics.ConnectsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info("session_established",
		"latency", best.Latency,
		"expires_at", sess.ExpiresAt,
		"refresh_in", delay,
		"ip", ack.IP,
		"country", ack.Country,
	)

	return ack, nil
}

// fail abandons attempt gen. A superseded attempt reports
// ErrAttemptSuperseded instead of err.
func (m *ConnectionManager) fail(gen uint64, log *slog.Logger, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		log.Info("connect attempt discarded, superseded", "error", err)
		return domain.ErrAttemptSuperseded
	}

	m.state = domain.StateDisconnected
	m.cancel = nil
	metrics.ConnectsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
	log.Warn("connect failed", "error", err)
	return err
}

// refreshDelay is the time until the refresh for tok must fire.
func (m *ConnectionManager) refreshDelay(tok tokenx.Token) (time.Duration, error) {
	delay := tok.ExpiresAt().Add(-m.opts.RefreshBuffer).Sub(m.opts.Clock.Now())
	if delay <= 0 {
		return 0, fmt.Errorf("%w: refresh buffer %s leaves no time before expiry at %s",
			domain.ErrInvalidScheduleWindow, m.opts.RefreshBuffer, tok.ExpiresAt().Format(time.RFC3339))
	}
	return delay, nil
}

// armLocked replaces the refresh timer. Caller holds mu.
func (m *ConnectionManager) armLocked(delay time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timerSeq++
	seq := m.timerSeq
	m.timer = m.opts.Clock.AfterFunc(delay, func() { m.onTimer(seq) })
}

func (m *ConnectionManager) onTimer(seq uint64) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	stale := seq != m.timerSeq || m.session == nil
	m.mu.Unlock()
	if stale {
		return
	}

	if err := m.refreshLocked(context.Background()); err != nil {
		m.log.Error("scheduled refresh failed", "error", err)
	}
}

func (m *ConnectionManager) refreshLocked(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil
	}
	sess := *m.session
	gen := m.generation
	m.state = domain.StateRefreshing
	m.mu.Unlock()

	log := m.log.With("region", sess.Region, "endpoint", sess.Endpoint, "session_id", sess.ID)

	tok, _, err := m.opts.Minter.Reissue(sess.Region, sess.Endpoint, sess.ID)
	var delay time.Duration
	if err == nil {
		delay, err = m.refreshDelay(tok)
	}
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		log.Warn("refresh_failed", "error", err)
		return m.recoverLocked(ctx, gen, sess, err)
	}

	m.emitMu.Lock()
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.emitMu.Unlock()
		log.Info("refresh discarded, disconnected while minting")
		return nil
	}
	m.session.Token = tok
	m.session.ExpiresAt = tok.ExpiresAt()
	m.state = domain.StateConnected
	m.armLocked(delay)
	updated := *m.session
	m.mu.Unlock()
	m.emit(domain.EventRefreshed, updated, nil)
	m.emitMu.Unlock()

	metrics.RefreshesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info("token_refreshed", "expires_at", updated.ExpiresAt, "refresh_in", delay)
	return nil
}

// recoverLocked drops the broken session and makes exactly one reconnect
// attempt to the same region. Nothing happens if the session was already
// dropped since attempt gen started.
func (m *ConnectionManager) recoverLocked(ctx context.Context, gen uint64, lost domain.Session, cause error) error {
	if !m.teardownIf(gen) {
		m.log.Info("refresh failure ignored, disconnected while minting", "session_id", lost.ID)
		return nil
	}

	_, err := m.connectLocked(ctx, lost.Region)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrAttemptSuperseded) {
		return err
	}

	metrics.SessionsLost.Inc()
	m.log.Error("session_lost",
		"region", lost.Region,
		"endpoint", lost.Endpoint,
		"session_id", lost.ID,
		"refresh_error", cause,
		"reconnect_error", err,
	)
	m.emit(domain.EventSessionLost, lost, errors.Join(cause, err))
	return fmt.Errorf("%w: %w", domain.ErrSessionLost, err)
}

// teardown invalidates any in-flight attempt, stops the timer and clears the
// session. It returns the session that was active, if any.
func (m *ConnectionManager) teardown() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teardownLocked()
}

// teardownIf tears down only while gen is still the current generation.
func (m *ConnectionManager) teardownIf(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return false
	}
	m.teardownLocked()
	return true
}

func (m *ConnectionManager) teardownLocked() *domain.Session {
	m.generation++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerSeq++

	sess := m.session
	m.session = nil
	m.state = domain.StateDisconnected
	return sess
}

func (m *ConnectionManager) emit(typ domain.EventType, sess domain.Session, err error) {
	if m.opts.OnEvent == nil {
		return
	}
	m.opts.OnEvent(domain.Event{
		Type:      typ,
		Region:    sess.Region,
		Endpoint:  sess.Endpoint,
		SessionID: sess.ID,
		At:        m.opts.Clock.Now(),
		Err:       err,
	})
}
