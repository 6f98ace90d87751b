// Package ws owns the lifecycle of the push connection: at most one live
// socket and at most one pending reconnect timer, tied to the current
// authenticated identity.
package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/campusdesk/campusdesk-notify/internal/auth"
	"github.com/campusdesk/campusdesk-notify/logger"
	"github.com/campusdesk/campusdesk-notify/types"
)

const (
	defaultCloseRetry   = 5 * time.Second
	defaultDialRetry    = 10 * time.Second
	defaultDialTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// ErrNotConnected is returned by Send when no authenticated connection is
// live. Callers fall back to local dispatch.
var ErrNotConnected = fmt.Errorf("push connection not established")

// Config contains the connection manager settings.
type Config struct {
	// URL is the full dial URL including the bearer token query parameter.
	URL string
	// CloseRetryDelay applies after an established connection is lost.
	CloseRetryDelay time.Duration
	// DialRetryDelay applies after a failed connection attempt.
	DialRetryDelay time.Duration
	// MaxAttempts caps consecutive reconnect attempts; zero retries forever.
	// When exhausted the manager parks in Disconnected with a terminal error.
	MaxAttempts  int
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.CloseRetryDelay <= 0 {
		c.CloseRetryDelay = defaultCloseRetry
	}
	if c.DialRetryDelay <= 0 {
		c.DialRetryDelay = defaultDialRetry
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
}

// Manager maintains at most one live push connection. All consumers see
// the connection only through read-only state and Send; the socket handle
// itself is never exposed.
type Manager struct {
	log     *zap.SugaredLogger
	cfg     Config
	metrics *managerMetrics

	onFrame func([]byte)
	onState func(types.ConnectionState, string)

	mu       sync.Mutex
	state    types.ConnectionState
	lastErr  string
	conn     *websocket.Conn
	timer    *time.Timer
	identity auth.Identity
	// generation invalidates callbacks from superseded connection attempts;
	// it is bumped by Start and Stop.
	generation uint64
	running    bool
	attempts   int
}

// NewManager creates a stopped connection manager.
func NewManager(cfg Config) *Manager {
	cfg.applyDefaults()
	return &Manager{
		log:     logger.GetLogger().Named("conn_manager"),
		cfg:     cfg,
		metrics: getManagerMetrics(),
		state:   types.StateDisconnected,
	}
}

// SetFrameHandler registers the receiver for inbound frames. Frames are
// delivered on the read goroutine in transport order. Must be called
// before Start.
func (m *Manager) SetFrameHandler(fn func([]byte)) {
	m.onFrame = fn
}

// SetStateHandler registers a callback for connection state changes.
// Must be called before Start.
func (m *Manager) SetStateHandler(fn func(types.ConnectionState, string)) {
	m.onState = fn
}

// Start begins connecting on behalf of the given identity. Calling Start
// while running is a no-op.
func (m *Manager) Start(id auth.Identity) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.generation++
	gen := m.generation
	m.identity = id
	m.attempts = 0
	m.lastErr = ""
	m.state = types.StateConnecting
	m.mu.Unlock()

	m.emitState()
	go m.dial(gen)
}

// Stop tears the connection down as one atomic step: the pending reconnect
// timer is cancelled and the socket closed before any new attempt can be
// scheduled. The manager does not auto-reconnect after Stop.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.generation++
	m.running = false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn := m.conn
	m.conn = nil
	changed := m.state != types.StateDisconnected
	m.state = types.StateDisconnected
	m.lastErr = ""
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client shutdown")
	}
	if changed {
		m.emitState()
	}
}

// Send serializes v onto the live connection. Returns ErrNotConnected when
// the manager is not in the Connected state.
func (m *Manager) Send(v any) error {
	m.mu.Lock()
	conn := m.conn
	state := m.state
	m.mu.Unlock()

	if state != types.StateConnected || conn == nil {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.WriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// State returns the current connection state.
func (m *Manager) State() types.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether the connection is live and authenticated.
func (m *Manager) Connected() bool {
	return m.State() == types.StateConnected
}

// LastError returns the most recent connection error, or empty.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// dial attempts to open and authenticate one connection. Every resumption
// point re-checks the generation so attempts superseded by Stop or a new
// Start go quietly away.
func (m *Manager) dial(gen uint64) {
	m.metrics.dialAttempts.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	conn, _, err := websocket.Dial(ctx, m.cfg.URL, nil)
	cancel()

	if err != nil {
		m.log.Warnw("Push connection dial failed", "error", err)
		m.mu.Lock()
		if gen != m.generation || !m.running {
			m.mu.Unlock()
			return
		}
		m.state = types.StateReconnecting
		m.lastErr = err.Error()
		m.scheduleRetryLocked(gen, m.cfg.DialRetryDelay)
		m.mu.Unlock()
		m.emitState()
		return
	}

	m.mu.Lock()
	if gen != m.generation || !m.running {
		m.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "superseded")
		return
	}
	m.conn = conn
	id := m.identity
	m.mu.Unlock()

	authCtx, cancelAuth := context.WithTimeout(context.Background(), m.cfg.WriteTimeout)
	err = wsjson.Write(authCtx, conn, types.AuthFrame{
		Type:   types.FrameTypeAuth,
		UserID: id.UserID,
		Role:   id.Role,
	})
	cancelAuth()
	if err != nil {
		m.log.Warnw("Failed to send auth frame", "error", err)
		m.connLost(gen, conn, fmt.Sprintf("auth frame write failed: %v", err), m.cfg.DialRetryDelay)
		return
	}

	m.mu.Lock()
	if gen != m.generation || !m.running || m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.state = types.StateConnected
	m.lastErr = ""
	m.attempts = 0
	m.mu.Unlock()

	m.log.Infow("Push connection established", "userID", id.UserID, "role", id.Role)
	m.emitState()
	go m.readLoop(gen, conn)
}

// readLoop is the only reader of the socket. Frames are handed to the
// frame handler in the order the transport delivers them.
func (m *Manager) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				m.log.Infow("Push connection closed by server", "status", status)
			} else {
				m.log.Warnw("Push connection read failed", "error", err)
			}
			m.connLost(gen, conn, err.Error(), m.cfg.CloseRetryDelay)
			return
		}

		if m.onFrame != nil {
			m.onFrame(data)
		}
	}
}

// connLost records the loss of an established connection and schedules a
// single reconnect attempt. Losses reported for a connection the manager
// no longer owns are ignored, which keeps duplicate close events from
// scheduling duplicate timers.
func (m *Manager) connLost(gen uint64, conn *websocket.Conn, cause string, delay time.Duration) {
	m.mu.Lock()
	if gen != m.generation || !m.running || m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = types.StateReconnecting
	m.lastErr = cause
	m.scheduleRetryLocked(gen, delay)
	m.mu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "connection lost")
	m.emitState()
}

// scheduleRetryLocked arms the single reconnect timer, replacing any
// pending one. Caller holds m.mu.
func (m *Manager) scheduleRetryLocked(gen uint64, delay time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	m.attempts++
	if m.cfg.MaxAttempts > 0 && m.attempts > m.cfg.MaxAttempts {
		m.running = false
		m.state = types.StateDisconnected
		m.lastErr = fmt.Sprintf("gave up after %d reconnect attempts: %s", m.cfg.MaxAttempts, m.lastErr)
		m.log.Errorw("Reconnect attempts exhausted", "maxAttempts", m.cfg.MaxAttempts)
		return
	}

	m.metrics.reconnectsScheduled.Inc()
	m.log.Infow("Scheduling reconnect", "delay", delay, "attempt", m.attempts)
	m.timer = time.AfterFunc(delay, func() {
		m.retryFired(gen)
	})
}

// retryFired transitions back to Connecting when the reconnect timer
// elapses, unless teardown got there first.
func (m *Manager) retryFired(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || !m.running {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.state = types.StateConnecting
	m.mu.Unlock()

	m.emitState()
	m.dial(gen)
}

// emitState delivers the current state snapshot to the state handler.
func (m *Manager) emitState() {
	if m.onState == nil {
		return
	}
	m.mu.Lock()
	state := m.state
	lastErr := m.lastErr
	m.mu.Unlock()
	m.onState(state, lastErr)
}
