package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"house-price-api/internal/api"
	"house-price-api/internal/cfg"
	"house-price-api/internal/logging"
	"house-price-api/internal/metrics"
	"house-price-api/internal/ml"
	"house-price-api/internal/service"
	"house-price-api/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	c, err := cfg.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logFile, err := logging.Setup(logging.Options{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
	})
	if err != nil {
		return fmt.Errorf("logging setup failed: %w", err)
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	model := ml.Load(ctx, c.ModelPath, ml.LoadOptions{
		PythonPath: c.PythonPath,
		Timeout:    c.PredictTimeout,
		Metrics:    mw,
	})
	defer model.Close()

	svcOpts := service.Options{
		Cache:   ml.NewPredictionCache(c.CacheSize, c.CacheTTL),
		Metrics: mw,
	}
	apiOpts := api.Options{
		Addr:            c.Addr(),
		CORSAllowOrigin: c.CORSAllowOrigin,
		MaxBodyBytes:    c.MaxBodyBytes,
		PredictTimeout:  c.PredictTimeout,
		Metrics:         mw,
		MetricsHandler:  promhttp.Handler(),
	}

	// The journal fields are interfaces; leave them nil when it is disabled.
	if store := initializeStorage(c); store != nil {
		defer store.Close()
		svcOpts.Journal = store
		apiOpts.Journal = store
	}

	srv := api.NewServer(service.New(model, svcOpts), apiOpts)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := waitForShutdown(ctx, sigChan, serverErr); err != nil {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
		return nil
	}
	log.Info().Msg("server stopped")
	return nil
}

// initializeStorage opens the prediction journal if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without prediction journal")
		return nil
	}
	log.Info().Str("data_path", c.DataPath).Msg("prediction journal enabled")
	return store
}

// waitForShutdown blocks until a signal arrives, ctx ends or the server
// fails. Only a server failure is returned.
func waitForShutdown(ctx context.Context, sigChan <-chan os.Signal, serverErr <-chan error) error {
	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	return nil
}
