package bankserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/telemetry/logger"
	"github.com/yndnr/bankmesh-go/internal/telemetry/metric"
	"github.com/yndnr/bankmesh-go/pkg/crypto/keypair"
)

// Config holds the bank listener configuration.
type Config struct {
	// Address is the host:port to bind.
	Address string
	// Framing is FramingRaw or FramingLength.
	Framing string
	// MaxMessageSize bounds one inbound message (default: 1024).
	MaxMessageSize int
	// AcceptRate limits new connections per second. 0 disables it.
	AcceptRate float64
	// AcceptBurst is the limiter's bucket size (default: 1).
	AcceptBurst int
	// HandshakeTimeout bounds the public key write so a stalled peer
	// cannot hold up the accept loop (default: 10s).
	HandshakeTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:          "127.0.0.1:8888",
		Framing:          FramingRaw,
		MaxMessageSize:   1024,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Server accepts bank protocol connections.
type Server struct {
	cfg     *Config
	keys    keypair.Decrypter
	auth    Authenticator
	ledger  Ledger
	metrics *metric.Registry
	logger  logger.Logger
	framer  Framer
	limiter *rate.Limiter

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a bank server. metrics and log may be nil.
func New(cfg *Config, keys keypair.Decrypter, auth Authenticator, ledger Ledger, metrics *metric.Registry, log logger.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if keys == nil || auth == nil || ledger == nil {
		return nil, domain.ErrConfig.WithDetails("bank server needs keys, credentials and a ledger")
	}
	if metrics == nil {
		metrics = metric.NewRegistry()
	}
	if log == nil {
		log = logger.Default()
	}

	framer, err := NewFramer(cfg.Framing, cfg.MaxMessageSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		keys:    keys,
		auth:    auth,
		ledger:  ledger,
		metrics: metrics,
		logger:  log,
		framer:  framer,
		conns:   make(map[net.Conn]struct{}),
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	return s, nil
}

// Listen binds the configured address. A bind failure is returned as is
// and should abort startup.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info("bank server listening", "address", ln.Addr().String(), "framing", s.cfg.Framing)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe binds and then serves until ctx is done or Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop on the listener bound by Listen. It returns
// nil after Shutdown or once ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return domain.ErrConfig.WithDetails("Serve called before Listen")
	}

	s.running.Store(true)
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.running.Store(false)
		s.mu.Unlock()
		_ = ln.Close()
	})
	defer stop()

	return s.acceptLoop(ctx, ln)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Warn("accept timeout", "error", err)
				continue
			}
			return err
		}

		if !s.throttle(ctx) {
			_ = c.Close()
			continue
		}

		if err := s.handshake(c); err != nil {
			s.logger.Debug("handshake failed", "remote", c.RemoteAddr().String(), "error", err)
			_ = c.Close()
			continue
		}

		if !s.track(c) {
			_ = c.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

// throttle waits for the accept limiter. It reports false when ctx ends
// first.
func (s *Server) throttle(ctx context.Context) bool {
	if s.limiter == nil || s.limiter.Allow() {
		return true
	}
	s.metrics.IncAcceptThrottled()
	return s.limiter.Wait(ctx) == nil
}

func (s *Server) handshake(c net.Conn) error {
	timeout := s.cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if err := s.framer.WriteMessage(c, s.keys.PublicKeyBytes()); err != nil {
		return err
	}
	return c.SetWriteDeadline(time.Time{})
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	defer c.Close()

	s.metrics.SessionOpened()
	defer s.metrics.SessionClosed()

	ctx = logger.WithRemote(logger.WithLogger(ctx, s.logger), c.RemoteAddr().String())
	sess := NewSession(ctx, s.keys, s.auth, s.ledger, s.metrics)

	l := sess.Logger()
	l.Info("session opened")
	if err := sess.Serve(c, s.framer); err != nil {
		l.Debug("session ended with error", "error", err)
	}
	sess.Logger().Info("session closed", "state", sess.State().String())
}

// track registers c and reserves a WaitGroup slot for it. It reports
// false once Shutdown has begun, so no slot is added after Wait starts.
func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// ActiveSessions returns the number of connections being served.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown stops accepting and waits for sessions to end. When ctx
// expires first, live connections are closed and ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	s.mu.Lock()
	s.running.Store(false)
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return firstErr
	case <-ctx.Done():
	}

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	<-done
	return ctx.Err()
}
