package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server runs the dashboard HTTP surface as a managed service.
type Server struct {
	addr    string
	handler http.Handler
	logger  zerolog.Logger

	httpServer *http.Server
	wg         sync.WaitGroup
}

// NewServer creates an HTTP server service for the given address and handler.
func NewServer(addr string, handler http.Handler, logger zerolog.Logger) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		logger:  logger,
	}
}

// Start begins serving in a separate goroutine.
func (s *Server) Start() error {
	if s.httpServer != nil {
		s.logger.Warn().Msg("HTTP server is already running")
		return errors.New("http server is already running")
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server terminated unexpectedly")
		}
	}()

	s.logger.Info().Str("addr", s.addr).Msg("HTTP server started successfully")
	return nil
}

// Stop gracefully shuts the server down, allowing in-flight requests to
// complete.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		s.logger.Warn().Msg("HTTP server is not running")
		return errors.New("http server is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	s.httpServer = nil

	if err != nil {
		return err
	}

	s.logger.Info().Msg("HTTP server stopped successfully")
	return nil
}
