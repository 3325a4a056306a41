// Package api exposes the prediction service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"house-price-api/internal/service"
	"house-price-api/internal/storage"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the HTTP layer
type MetricsInterface interface {
	HTTPRequestObserve(method, path string, status int, d time.Duration)
}

// JournalReader lists recent predictions. *storage.Store satisfies it.
type JournalReader interface {
	Recent(limit int) ([]storage.Entry, error)
}

// Options configures a Server. Zero values disable the optional parts.
type Options struct {
	Addr            string
	CORSAllowOrigin string
	MaxBodyBytes    int64
	PredictTimeout  time.Duration
	Journal         JournalReader
	Metrics         MetricsInterface
	MetricsHandler  http.Handler
}

// Server provides the HTTP API for house price predictions
type Server struct {
	svc     *service.Service
	opts    Options
	started time.Time
	handler http.Handler
	server  *http.Server
}

// NewServer builds the routes and middleware stack around svc.
func NewServer(svc *service.Service, opts Options) *Server {
	s := &Server{
		svc:     svc,
		opts:    opts,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/model/info", s.handleModelInfo)
	mux.HandleFunc("/predictions", s.handlePredictions)
	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}

	s.handler = Chain(
		WithRequestID,
		WithLogging(opts.Metrics),
		WithRecovery,
		CORS{AllowOrigin: opts.CORSAllowOrigin}.Wrap,
	)(mux)

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting prediction API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
