package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/relayboard/internal/logging"
	"github.com/muurk/relayboard/internal/metrics"
	"github.com/muurk/relayboard/internal/relay"
	"github.com/muurk/relayboard/internal/status"
)

// DefaultReadBufferSize is the per-connection read buffer. A request that
// does not fit is truncated; only its first bytes are ever decoded.
const DefaultReadBufferSize = 1024

// DocumentSource supplies the current status document.
type DocumentSource interface {
	Current() *status.Document
}

// Config holds the server configuration
type Config struct {
	Bank   *relay.Bank
	Status DocumentSource
	Page   []byte

	ReadBufferSize int           // 0 = DefaultReadBufferSize
	ConnTimeout    time.Duration // per-connection I/O deadline, 0 = none

	Metrics *metrics.Metrics // optional
}

// Server is the relay board control socket. Connections are served one at a
// time in accept order; a second client waits in the listen backlog.
type Server struct {
	config   Config
	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server instance
func New(config Config) (*Server, error) {
	if config.Bank == nil {
		return nil, errors.New("server: relay bank is required")
	}
	if config.Status == nil {
		return nil, errors.New("server: status source is required")
	}
	if config.ReadBufferSize < 0 {
		return nil, fmt.Errorf("server: read buffer size %d is negative", config.ReadBufferSize)
	}
	if config.ReadBufferSize == 0 {
		config.ReadBufferSize = DefaultReadBufferSize
	}
	if config.ConnTimeout < 0 {
		return nil, fmt.Errorf("server: connection timeout %s is negative", config.ConnTimeout)
	}
	return &Server{config: config}, nil
}

// Listen opens an IPv4 TCP listener on addr for a later call to Serve.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	logging.Info("Control socket listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// SetListener makes Serve accept on ln instead of opening its own.
func (s *Server) SetListener(ln net.Listener) {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
}

// Addr returns the listen address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is done or the listener fails. Each
// connection is handled to completion before the next Accept.
//
// Serve returns nil when it stops because ctx was cancelled. A non-temporary
// accept failure is returned wrapped.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logging.Info("Control socket closed")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logging.Warn("Accept timed out", zap.Error(err))
				s.config.Metrics.ObserveConnectionError("accept")
				continue
			}
			if isTemporary(err) {
				logging.Warn("Temporary accept failure", zap.Error(err))
				s.config.Metrics.ObserveConnectionError("accept")
				continue
			}
			s.config.Metrics.ObserveConnectionError("accept")
			return fmt.Errorf("server: accept: %w", err)
		}

		s.handleConnection(conn)
	}
}

// isTemporary reports transient accept conditions such as descriptor
// exhaustion.
func isTemporary(err error) bool {
	var te interface{ Temporary() bool }
	return errors.As(err, &te) && te.Temporary()
}
