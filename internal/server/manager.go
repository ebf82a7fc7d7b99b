package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/desertthunder/steamlink/internal/shared"
)

// DefaultHost is the loopback address sessions bind to.
const DefaultHost = "127.0.0.1"

// ManagerOpts contains configuration options for creating a [Manager].
type ManagerOpts struct {
	Logger *log.Logger
	Sink   Sink

	// Timeout overrides [SessionTimeout]. Zero uses SessionTimeout.
	Timeout time.Duration
	// Host overrides [DefaultHost].
	Host string
}

// Manager owns at most one listening session at a time.
//
// Start and Cancel may be called concurrently from any goroutine.
type Manager struct {
	mu      sync.Mutex
	current *session

	logger  *log.Logger
	sink    Sink
	timeout time.Duration
	host    string
}

// NewManager creates a new [Manager] with the provided options.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Sink == nil {
		logger := opts.Logger
		opts.Sink = SinkFunc(func(query map[string]string) {
			logger.Warn("no sink configured, discarding callback result", "params", len(query))
		})
	}
	if opts.Timeout <= 0 {
		opts.Timeout = SessionTimeout
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}

	return &Manager{
		logger:  opts.Logger,
		sink:    opts.Sink,
		timeout: opts.Timeout,
		host:    opts.Host,
	}
}

// Start binds a new loopback listener on an ephemeral port and returns the port.
//
// A session that is still running is cancelled and awaited first, so two listeners are never bound at once. Bind
// failures wrap [ErrBind]; failing to tear down the previous session wraps [ErrJoin]. ctx bounds only the teardown
// and the bind, not the lifetime of the new session.
func (m *Manager) Start(ctx context.Context) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stop(ctx); err != nil {
		return 0, err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(m.host, "0"))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBind, err)
	}

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		ln.Close()
		return 0, fmt.Errorf("%w: unexpected listener address %v", ErrBind, ln.Addr())
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:      uuid.NewString(),
		port:    uint16(addr.Port),
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	logger := shared.WithLogger(m.logger, "session", s.id, "port", s.port)
	go s.run(sessCtx, newLoop(ln, m.sink, m.timeout, logger))

	m.current = s
	logger.Info("login listener started", "addr", addr.String())

	return s.port, nil
}

// Cancel stops the running session and waits for it to exit.
//
// It is a no-op when no session is running. Once Cancel returns nil the port is released and the sink will not be
// called again for that session. If ctx expires first the error wraps [ErrJoin] and the session stays owned, so a
// later Cancel can wait again.
func (m *Manager) Cancel(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stop(ctx)
}

// stop cancels and awaits the current session. m.mu must be held.
func (m *Manager) stop(ctx context.Context) error {
	s := m.current
	if s == nil {
		return nil
	}

	s.cancel()

	select {
	case <-s.done:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrJoin, ctx.Err())
	}

	m.current = nil
	m.logger.Debug("session released", "session", s.id, "port", s.port, "lifetime", time.Since(s.started))

	return s.err
}

// Port returns the port of the current session. ok is false when no session is owned.
//
// A session that finished on its own is still owned until the next Start or Cancel.
func (m *Manager) Port() (port uint16, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return 0, false
	}
	return m.current.port, true
}

// Active reports whether a session is currently listening.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return false
	}

	select {
	case <-m.current.done:
		return false
	default:
		return true
	}
}
