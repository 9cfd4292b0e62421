// Package api exposes the tracker to the browser extension and the CLI
// over HTTP.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goodtune/snstimer/internal/dashboard"
	"github.com/goodtune/snstimer/internal/notify"
	"github.com/goodtune/snstimer/internal/tracker"
	"github.com/rs/zerolog"
)

// EventSink accepts browser events. *tracker.Loop implements it.
type EventSink interface {
	Dispatch(ctx context.Context, ev tracker.Event) error
}

// Config holds API server settings.
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
}

// Deps holds the services the API routes call into.
type Deps struct {
	Events        EventSink
	Dashboard     *dashboard.Service
	Notifications *notify.Queue
	Clock         tracker.Clock
	Logger        zerolog.Logger
}

// Server is the API HTTP server.
type Server struct {
	config   Config
	server   *http.Server
	router   *gin.Engine
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates the API server.
func NewServer(cfg Config, deps Deps, logger zerolog.Logger) *Server {
	if logger.GetLevel() == zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Clock == nil {
		deps.Clock = tracker.RealClock{}
	}

	logger = logger.With().Str("component", "api").Logger()
	deps.Logger = logger

	// No default middleware; requests are logged through zerolog
	router := gin.New()
	router.Use(gin.Recovery())

	SetupRoutes(router, &deps, cfg.AllowedOrigins)

	return &Server{
		config: cfg,
		router: router,
		logger: logger,
		server: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server.
func (s *Server) Start() error {
	var ln net.Listener
	if s.listener != nil {
		ln = s.listener
	} else {
		var err error
		ln, err = net.Listen("tcp", s.config.ListenAddr)
		if err != nil {
			return err
		}
	}

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting API server")
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info().Msg("Stopping API server")
	return s.server.Shutdown(ctx)
}
