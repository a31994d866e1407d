package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HugeFrog24/gpt-video-chat/config"
	"github.com/HugeFrog24/gpt-video-chat/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	pipeline, err := utils.NewPipelineFromConfig(cfg, nil, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}
	bakeoff := utils.NewBakeoff(pipeline, logger)
	for _, b := range bakeoff.Backends() {
		logger.Info("bakeoff candidate", "backend", b.ID, "name", b.Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewServer(ctx, bakeoff, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("bakeoff server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	bakeoff.Reset()
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "error", err)
	}
	if err := bakeoff.Wait(shutdownCtx); err != nil {
		logger.Warn("runs still in flight at exit", "error", err)
	}
}
