// Package server accepts kvs client connections and runs one session per
// connection on a thread pool. Every session shares the same core.Engine.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/XDXX/PNA/core"
	"github.com/XDXX/PNA/internal/pool"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	engine core.Engine
	pool   pool.ThreadPool

	idleTimeout time.Duration
	logger      log.FieldLogger

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool

	nextSessionID atomic.Uint64
}

type Option func(*Server)

func WithLogger(logger log.FieldLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithIdleTimeout closes sessions that stay silent for longer than d.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.idleTimeout = d
	}
}

// New returns a server dispatching sessions for engine onto p. The server
// owns neither: callers shut the pool down and close the engine after Serve
// returns.
func New(engine core.Engine, p pool.ThreadPool, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		pool:   p,
		logger: log.WithField("component", "server"),
		conns:  make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. On cancellation
// the listener and every open connection are closed, which ends all
// sessions; Serve then returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.WithField("addr", ln.Addr().String()).Info("listening")

	done := make(chan struct{})
	defer close(done)

	// When ctx is cancelled, close listener and open sessions. This also
	// frees a Spawn blocked on a full queue.
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
			s.closeConnections()
		case <-done:
		}
	}()

	// Accept Loop
	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				s.closeConnections()
				return err
			}

			s.logger.WithError(err).Error("error accepting connection")
			continue
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}

		session := newSession(s.nextSessionID.Add(1), conn, s.engine, s.idleTimeout, s.logger)
		if err := s.pool.Spawn(func() {
			defer s.untrack(conn)
			session.Run()
		}); err != nil {
			s.untrack(conn)
			conn.Close()
			s.logger.WithError(err).Error("unable to schedule session")
		}
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conns, conn)
}

func (s *Server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return
	}
	s.closing = true
	for conn := range s.conns {
		conn.Close()
	}

	if n := len(s.conns); n > 0 {
		s.logger.WithField("sessions", n).Info("closed open sessions")
	}
}
