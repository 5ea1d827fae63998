package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/permaconf/permaconf-go/pkg/command"
	"github.com/permaconf/permaconf-go/pkg/log"
)

// DefaultPort is the default console listen port.
const DefaultPort = 7776

// ServerConfig configures a console server.
type ServerConfig struct {
	// Address to listen on (e.g. ":7776" or "127.0.0.1:7776").
	Address string

	// Manager dispatches incoming lines. Required.
	Manager *command.Manager

	// Greeting, if non-empty, is sent to each new connection followed by
	// CRLF.
	Greeting string

	// Logger for engine events (optional).
	Logger log.Logger

	// OnConnect is called when a new connection is established.
	OnConnect func(conn *ServerConn)

	// OnDisconnect is called when a connection is closed.
	OnDisconnect func(conn *ServerConn)
}

// Server is a TCP console server for the configuration protocol.
type Server struct {
	config   ServerConfig
	logger   log.Logger
	listener net.Listener

	// Active connections
	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a console server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Manager == nil {
		return nil, fmt.Errorf("Manager is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Server{
		config: config,
		logger: logger,
		conns:  make(map[*ServerConn]struct{}),
	}, nil
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()

	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		netConn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
				continue
			}
		}

		conn := newServerConn(s, netConn)

		s.connsMu.Lock()
		s.conns[conn] = struct{}{}
		s.connsMu.Unlock()

		if s.config.OnConnect != nil {
			s.config.OnConnect(conn)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			conn.serve()
			s.removeConn(conn)
		}()
	}
}

func (s *Server) removeConn(conn *ServerConn) {
	s.connsMu.Lock()
	_, present := s.conns[conn]
	delete(s.conns, conn)
	s.connsMu.Unlock()

	if present && s.config.OnDisconnect != nil {
		s.config.OnDisconnect(conn)
	}
}
