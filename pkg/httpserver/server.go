package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/remindkit/pkg/logger"
)

type config struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Server serves HTTP until its context is cancelled.
type Server struct {
	cfg   config
	mu    sync.Mutex
	srv   *http.Server
	addr  net.Addr
	ready chan struct{}
}

func New(opts ...Option) *Server {
	cfg := config{
		addr:            ":8081",
		readTimeout:     10 * time.Second,
		writeTimeout:    30 * time.Second,
		idleTimeout:     120 * time.Second,
		shutdownTimeout: 5 * time.Second,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{cfg: cfg, ready: make(chan struct{})}
}

// Run listens and serves handler until ctx is done, then shuts down
// gracefully. It returns ErrStart if the listener cannot be opened or the
// server fails, and ErrShutdown if draining exceeds the shutdown timeout.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.readTimeout,
		WriteTimeout: s.cfg.writeTimeout,
		IdleTimeout:  s.cfg.idleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.srv = srv
	s.addr = ln.Addr()
	close(s.ready)
	s.mu.Unlock()

	log := s.cfg.logger.With(logger.Component("httpserver"), slog.String("addr", ln.Addr().String()))
	log.InfoContext(ctx, "http server started")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Join(ErrStart, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	<-errCh
	if err != nil {
		_ = srv.Close()
		return errors.Join(ErrShutdown, err)
	}
	log.InfoContext(ctx, "http server stopped")
	return nil
}

// Addr returns the bound address once Run is listening, blocking until then
// or until ctx is done.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
