// Package main wires together the seed search service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fairdice/seedsearch/internal/api"
	"github.com/fairdice/seedsearch/internal/clock/system"
	"github.com/fairdice/seedsearch/internal/config"
	"github.com/fairdice/seedsearch/internal/id/uuid"
	"github.com/fairdice/seedsearch/internal/logging"
	"github.com/fairdice/seedsearch/internal/progress"
	"github.com/fairdice/seedsearch/internal/progress/sinks"
	"github.com/fairdice/seedsearch/internal/registry"
	"github.com/fairdice/seedsearch/internal/worker"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("progress metrics init failed", zap.Error(err))
	}
	hub := progress.NewHub(progress.Config{Logger: logger.Named("progress")},
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
	)

	reg := registry.New(
		uuid.New(),
		system.New(),
		hub,
		logger.Named("registry"),
		registry.Config{
			MaxConcurrentJobs: cfg.Search.MaxConcurrentJobs,
			Worker: worker.Config{
				PausePoll:      time.Duration(cfg.Search.PausePollMs) * time.Millisecond,
				HeartbeatEvery: cfg.Search.HeartbeatEvery,
			},
		},
	)

	apiServer := api.NewServer(reg, cfg, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	if err := reg.Close(shutdownCtx); err != nil {
		logger.Warn("registry drain incomplete", zap.Error(err))
	}
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Warn("progress hub close incomplete", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
