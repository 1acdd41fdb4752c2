// Package server provides functionalities to start and manage the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mediavault/internal/config"
	"mediavault/internal/logging"
	"mediavault/internal/media"
	"mediavault/internal/metrics"
	"mediavault/internal/server/video"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Handler builds the full route table around svc.
func Handler(svc video.Service, maxUpload int64, logger *zap.Logger, m *metrics.Metrics) http.Handler {
	// Mux definition start
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	handle(mux, "GET /metrics", m.Handler())
	handle(mux, "/", video.VideoHandler(svc, maxUpload, logger.Named("video")))
	// Mux definition end

	return chain(mux, requestID, observe(logger.Named("http"), m))
}

// Serve wires the backends from cfg and blocks until ctx is cancelled or
// SIGINT/SIGTERM arrives, then drains in-flight requests.
func Serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	durable, err := openDurable(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}
	defer durable.Close(context.Background())

	c, err := openCache(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer c.Close()

	m := metrics.New()
	store := media.NewStore(media.StoreConfig{
		Durable: durable,
		Cache:   c,
		TTL:     cfg.CacheTTL,
		Timeout: cfg.StorageTimeout,
		Logger:  logger.Named("store"),
		Metrics: m,
	})
	svc := media.NewService(store, media.NewValidator(), logger.Named("media"))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := &http.Server{
		Handler:           Handler(svc, cfg.MaxUploadBytes, logger, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.Port))
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
