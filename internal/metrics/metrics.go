package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Accounting metrics
	TrackedSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snstimer_tracked_seconds_total",
			Help: "Total seconds accounted to a tracked domain",
		},
		[]string{"domain"},
	)

	Flushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snstimer_flushes_total",
			Help: "Session flushes by trigger",
		},
		[]string{"reason"},
	)

	FlushErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "snstimer_flush_errors_total",
			Help: "Flushes that failed to persist",
		},
	)

	// Event metrics
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snstimer_events_total",
			Help: "Browser events received",
		},
		[]string{"type"},
	)

	TrackingActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "snstimer_tracking_active",
			Help: "1 while a tracked domain is in the foreground",
		},
	)

	// Limit metrics
	LimitNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snstimer_limit_notifications_total",
			Help: "Limit-reached notifications emitted",
		},
		[]string{"domain"},
	)

	DailyResets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snstimer_daily_resets_total",
			Help: "Daily statistics resets",
		},
		[]string{"trigger"},
	)
)

func init() {
	prometheus.MustRegister(
		TrackedSeconds,
		Flushes,
		FlushErrors,
		EventsTotal,
		TrackingActive,
		LimitNotifications,
		DailyResets,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
