// Package listener starts, stops, and restarts the per-protocol DNS
// ingress servers from a declared configuration, with atomic restart
// and revert-on-bind-failure semantics.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/fluxdns/fluxdns/internal/ingress"
)

// bindCheckWindow is how long StartListener waits for a run loop to
// fail fast on a bad bind before declaring the start successful.
const bindCheckWindow = 150 * time.Millisecond

// Protocol identifies one of the four ingress listeners.
type Protocol string

const (
	UDP Protocol = "udp"
	DoT Protocol = "dot"
	DoH Protocol = "doh"
	DoQ Protocol = "doq"
)

// ErrBindFailed is returned when a listener's run loop fails to bind
// its address.
var ErrBindFailed = errors.New("listener: bind failed")

// ErrConfigInvalid is returned when a TLS-requiring protocol is
// enabled without both a certificate and a key.
var ErrConfigInvalid = errors.New("listener: invalid configuration")

// Config describes one row of server_listeners.
type Config struct {
	Protocol    Protocol
	Enabled     bool
	BindAddress string
	Port        int
	TLSCert     string
	TLSKey      string
}

func (c Config) addr() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

func (c Config) requiresTLS() bool {
	return c.Protocol == DoT || c.Protocol == DoQ
}

// Store persists listener configuration; the manager reverts an
// enabled flag here when a start attempt fails.
type Store interface {
	ListListeners(ctx context.Context) ([]Config, error)
	GetListener(ctx context.Context, protocol Protocol) (Config, error)
	SetListenerEnabled(ctx context.Context, protocol Protocol, enabled bool) error
}

// runner is the subset of each ingress server's method set the
// manager needs; every protocol server in internal/ingress already
// has this shape.
type runner interface {
	Run(ctx context.Context, addr string) error
}

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager tracks one running server task per protocol. Its handle map
// is process-wide; each entry holds its own synchronization.
type Manager struct {
	Store   Store
	Handler *ingress.Handler
	Logger  *slog.Logger

	mu       sync.Mutex
	handles  map[Protocol]*handle
	protMu   map[Protocol]*sync.Mutex
}

// NewManager constructs a Manager ready to start listeners.
func NewManager(store Store, handler *ingress.Handler, logger *slog.Logger) *Manager {
	return &Manager{
		Store:   store,
		Handler: handler,
		Logger:  logger,
		handles: make(map[Protocol]*handle),
		protMu:  make(map[Protocol]*sync.Mutex),
	}
}

func (m *Manager) mutexFor(p Protocol) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.protMu[p]
	if !ok {
		mu = &sync.Mutex{}
		m.protMu[p] = mu
	}
	return mu
}

// StartAllEnabled reads listeners from the store and starts each
// enabled one.
func (m *Manager) StartAllEnabled(ctx context.Context) error {
	configs, err := m.Store.ListListeners(ctx)
	if err != nil {
		return fmt.Errorf("listener: list listeners: %w", err)
	}
	var firstErr error
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		if err := m.StartListener(ctx, cfg.Protocol); err != nil {
			if m.Logger != nil {
				m.Logger.Error("listener start failed", "protocol", cfg.Protocol, "error", err)
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// StartListener re-reads config, validates it, constructs the
// protocol's server, spawns its run loop, and tracks the abort
// handle. Concurrent calls for the same protocol serialize on a
// per-protocol mutex.
func (m *Manager) StartListener(ctx context.Context, p Protocol) error {
	mu := m.mutexFor(p)
	mu.Lock()
	defer mu.Unlock()

	cfg, err := m.Store.GetListener(ctx, p)
	if err != nil {
		return fmt.Errorf("listener: get %s: %w", p, err)
	}
	if cfg.requiresTLS() && (cfg.TLSCert == "" || cfg.TLSKey == "") {
		_ = m.Store.SetListenerEnabled(ctx, p, false)
		return fmt.Errorf("%w: %s requires tls_cert and tls_key", ErrConfigInvalid, p)
	}

	// Enabling an already-running listener triggers a restart (stop
	// then start), .
	m.stopLocked(p)

	r, err := m.build(cfg)
	if err != nil {
		_ = m.Store.SetListenerEnabled(ctx, p, false)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	bindErrCh := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		err := r.Run(runCtx, cfg.addr())
		select {
		case bindErrCh <- err:
		default:
		}
	}()

	// Give the run loop a brief window to fail fast on a bad bind
	// before we consider the start successful; an error here is
	// necessarily a bind/config failure since Run otherwise blocks
	// until ctx is cancelled.
	select {
	case err := <-bindErrCh:
		cancel()
		<-done
		if err != nil {
			_ = m.Store.SetListenerEnabled(ctx, p, false)
			return fmt.Errorf("%w: %s: %v", ErrBindFailed, p, err)
		}
	case <-time.After(bindCheckWindow):
	}

	m.mu.Lock()
	m.handles[p] = &handle{cancel: cancel, done: done}
	m.mu.Unlock()

	if m.Logger != nil {
		m.Logger.Info("listener started", "protocol", p, "addr", cfg.addr())
	}
	return nil
}

// StopListener aborts the tracked handle for p, if any.
func (m *Manager) StopListener(p Protocol) {
	mu := m.mutexFor(p)
	mu.Lock()
	defer mu.Unlock()
	m.stopLocked(p)
}

func (m *Manager) stopLocked(p Protocol) {
	m.mu.Lock()
	h, ok := m.handles[p]
	if ok {
		delete(m.handles, p)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	h.cancel()
	<-h.done
}

// IsRunning reports whether a handle is currently tracked for p.
func (m *Manager) IsRunning(p Protocol) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handles[p]
	return ok
}

// StopAll aborts every tracked listener; used on process shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	protocols := make([]Protocol, 0, len(m.handles))
	for p := range m.handles {
		protocols = append(protocols, p)
	}
	m.mu.Unlock()
	for _, p := range protocols {
		m.StopListener(p)
	}
}

func (m *Manager) build(cfg Config) (runner, error) {
	switch cfg.Protocol {
	case UDP:
		return &ingress.UDPServer{Handler: m.Handler}, nil
	case DoT:
		return &ingress.DoTServer{Handler: m.Handler, TLSCert: cfg.TLSCert, TLSKey: cfg.TLSKey}, nil
	case DoH:
		return &ingress.DoHServer{Handler: m.Handler, TLSCert: cfg.TLSCert, TLSKey: cfg.TLSKey}, nil
	case DoQ:
		return &ingress.DoQServer{Handler: m.Handler, TLSCert: cfg.TLSCert, TLSKey: cfg.TLSKey}, nil
	default:
		return nil, fmt.Errorf("%w: unknown protocol %q", ErrConfigInvalid, cfg.Protocol)
	}
}
