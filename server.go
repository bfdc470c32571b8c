// Package modbus implements a Modbus/TCP server: MBAP framing, the
// function-code dispatch table, and the TCP accept loop that binds them to
// a databank.Bank. See databank.Bank for the coil/register store and
// wordutil for the bit/word helpers the codec and typed accessors share.
package modbus

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modbus-tcp/server/databank"
)

// Config configures a Server at construction time. The zero value listens
// on all IPv4 interfaces, port 502, with a non-blocking Start.
type Config struct {
	// Host is the address to bind to; "" binds all interfaces.
	Host string
	// Port is the TCP port to listen on. Defaults to 502 if zero.
	Port int
	// IPv6 selects the "tcp6" network instead of "tcp4".
	IPv6 bool
	// Blocking selects whether Start consumes the calling goroutine
	// (true) or runs the accept loop on a background goroutine and
	// returns immediately (false).
	Blocking bool
}

func (c Config) network() string {
	if c.IPv6 {
		return "tcp6"
	}
	return "tcp4"
}

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 502
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// Server is a Modbus/TCP server: it owns one databank.Bank and accepts any
// number of concurrent client connections against it. The zero value is
// not ready for use — construct with NewServer.
type Server struct {
	cfg   Config
	bank  *databank.Bank
	log   *zap.Logger
	stats *stats

	mu       sync.Mutex
	listener net.Listener
	running  int32
	wg       sync.WaitGroup

	connHook atomic.Value // func(ConnEvent), boxed
}

// NewServer constructs a Server bound to its own, private databank.Bank.
// log may be nil, in which case a no-op logger is used.
func NewServer(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:   cfg,
		bank:  databank.New(),
		log:   log,
		stats: newStats(),
	}
}

// Bank returns the server's databank.Bank, for seeding values, reading
// state, and clearing — the only programmatic surface onto live register
// and coil state (spec.md §6).
func (s *Server) Bank() *databank.Bank {
	return s.bank
}

// Stats returns a point-in-time snapshot of server activity.
func (s *Server) Stats() Stats {
	return s.stats.snapshot()
}

// OnConnEvent registers a callback invoked for every connection-accept and
// connection-close transition. Only one callback may be registered at a
// time; a later call replaces an earlier one. hook is called from the
// connection's own goroutine and must not block.
func (s *Server) OnConnEvent(hook func(ConnEvent)) {
	s.connHook.Store(hook)
}

func (s *Server) fireConnEvent(ev ConnEvent) {
	if h, ok := s.connHook.Load().(func(ConnEvent)); ok && h != nil {
		h(ev)
	}
}

// IsRunning reports whether the accept loop is currently active.
func (s *Server) IsRunning() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// ListenAddr returns the address the server is bound to, or "" if Start
// has not been called (or has not yet finished binding).
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the listening socket, applies SO_REUSEADDR/SO_KEEPALIVE/
// TCP_NODELAY, and begins accepting connections. If cfg.Blocking is true,
// Start runs the accept loop on the calling goroutine and only returns
// when the listener is closed (by Stop or an accept error); otherwise it
// starts the accept loop on a background goroutine and returns immediately.
func (s *Server) Start() error {
	ln, err := net.Listen(s.cfg.network(), s.cfg.addr())
	if err != nil {
		return fmt.Errorf("modbus: listen: %w", err)
	}
	if tl, ok := ln.(*net.TCPListener); ok {
		ln = &keepAliveListener{tl}
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	atomic.StoreInt32(&s.running, 1)
	s.log.Info("modbus server listening", zap.String("addr", ln.Addr().String()))

	if s.cfg.Blocking {
		s.acceptLoop(ln)
		return nil
	}
	go s.acceptLoop(ln)
	return nil
}

// Stop closes the listening socket. Connections already accepted are left
// to finish their current exchange and exit naturally when the client
// disconnects (documented choice, spec.md §4.4).
func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	atomic.StoreInt32(&s.running, 0)
	return ln.Close()
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer atomic.StoreInt32(&s.running, 0)
	for {
		nc, err := ln.Accept()
		if err != nil {
			s.log.Debug("accept loop stopping", zap.Error(err))
			return
		}
		c := &conn{
			id:      uuid.New(),
			nc:      nc,
			bank:    s.bank,
			log:     s.log,
			stats:   s.stats,
			onEvent: s.fireConnEvent,
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve()
		}()
	}
}

// Wait blocks until every in-flight connection worker has exited. Intended
// for tests and graceful-shutdown sequences after Stop.
func (s *Server) Wait() {
	s.wg.Wait()
}
