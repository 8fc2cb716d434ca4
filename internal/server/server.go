// Package server implements the TCP front end of the package index: a
// listener/acceptor that runs one session goroutine per client connection,
// and the per-connection read/dispatch/write loop over the line protocol.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"

	"github.com/huyhandes/pkgindexd/internal/config"
	"github.com/huyhandes/pkgindexd/internal/index"
)

// State is the lifecycle state of the server.
type State int32

const (
	StateNew State = iota
	StateListening
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateListening:
		return "listening"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

type Server struct {
	cfg   *config.Config
	store *index.Store

	state    atomic.Int32
	listener net.Listener

	mu       sync.Mutex
	sessions map[*session]struct{}
	wg       sync.WaitGroup

	connCount atomic.Int64
}

func New(cfg *config.Config, store *index.Store) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		sessions: make(map[*session]struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Addr returns the bound listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Listen binds the configured TCP address and moves the server from NEW to
// LISTENING. A bind failure leaves the server in NEW.
func (s *Server) Listen() error {
	if !s.state.CompareAndSwap(int32(StateNew), int32(StateListening)) {
		return errors.New("server: Listen called twice")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		s.state.Store(int32(StateNew))
		return err
	}
	s.listener = ln

	log.Info().
		Str("address", ln.Addr().String()).
		Int("max_conns", s.cfg.MaxConns).
		Msg("TCP listener bound")
	return nil
}

// Serve accepts connections until Shutdown closes the listener. Each
// accepted connection gets its own session goroutine. Serve returns nil on
// a clean shutdown.
func (s *Server) Serve() error {
	switch s.State() {
	case StateListening:
	case StateDraining, StateStopped:
		return nil
	default:
		return errors.New("server: Serve before Listen")
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.State() != StateListening {
				// Listener closed by Shutdown.
				return nil
			}
			log.Error().Err(err).Msg("accept failed")
			return err
		}

		if s.cfg.MaxConns > 0 && s.connCount.Load() >= int64(s.cfg.MaxConns) {
			log.Warn().
				Str("remote", conn.RemoteAddr().String()).
				Int("max_conns", s.cfg.MaxConns).
				Msg("connection limit reached, rejecting client")
			conn.Close()
			continue
		}

		sess := newSession(conn, s.store)
		s.register(sess)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.unregister(sess)
			sess.serve()
		}()
	}
}

// ListenAndServe is Listen followed by Serve.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting, signals every live session to drain, and waits
// for them to finish. Sessions idle in a read are unblocked immediately; a
// session with a request in flight writes its response first. When ctx
// expires before the sessions drain, remaining connections are closed
// forcibly and a context error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateListening), int32(StateDraining)) {
		return nil
	}
	defer s.state.Store(int32(StateStopped))

	log.Warn().Int64("open_conns", s.connCount.Load()).Msg("draining sessions")

	s.listener.Close()

	s.mu.Lock()
	for sess := range s.sessions {
		sess.drain()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all sessions drained")
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for sess := range s.sessions {
			sess.close()
		}
		s.mu.Unlock()
		<-done
		log.Warn().Msg("grace period elapsed, sessions closed forcibly")
		return ctx.Err()
	}
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	// A connection accepted just before the listener closed can land here
	// after the drain broadcast; signal it directly.
	if s.State() != StateListening {
		sess.drain()
	}
	n := s.connCount.Add(1)
	log.Debug().
		Str("remote", sess.remote).
		Int64("open_conns", n).
		Msg("client connected")
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
	n := s.connCount.Add(-1)
	log.Debug().
		Str("remote", sess.remote).
		Uint64("requests", sess.requests).
		Int64("open_conns", n).
		Dur("uptime", time.Since(sess.startedAt)).
		Msg("client disconnected")
}
