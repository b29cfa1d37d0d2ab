// Package main implements the followcast server. It records daily follower
// counts and serves trend alerts, milestone insights and linear forecasts
// over an HTTP JSON API, with an optional gRPC health endpoint.
package main

import (
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/HatiCode/followcast/cmd/followcast/config"
	"github.com/HatiCode/followcast/cmd/followcast/grpchealth"
	"github.com/HatiCode/followcast/cmd/followcast/logger"
	"github.com/HatiCode/followcast/cmd/followcast/metrics"
	"github.com/HatiCode/followcast/cmd/followcast/router"
	"github.com/HatiCode/followcast/cmd/followcast/store"
	"github.com/HatiCode/followcast/pkg/changelog"
	"github.com/HatiCode/followcast/pkg/httpx"
	"github.com/HatiCode/followcast/pkg/milestone"
	"github.com/HatiCode/followcast/pkg/tracker"
)

var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting followcast",
		"version", version,
		"listen", cfg.Listen,
		"storage", cfg.Storage,
	)

	notes, err := changelog.Load(cfg.ChangelogPath)
	if err != nil {
		logger.Error("failed to load changelog", "path", cfg.ChangelogPath, "error", err)
		os.Exit(1)
	}

	st := store.New(cfg, logger)

	svc := tracker.New(st, tracker.Options{
		AlertWindow:    cfg.AlertWindow,
		Milestone:      milestone.Policy{Step: cfg.MilestoneStep},
		DefaultHorizon: cfg.ForecastDays,
		MaxHorizon:     cfg.MaxForecastDays,
	}, metrics.New(), logger)

	handler := router.SetupRoutes(svc, notes, router.Options{
		CORSOrigins: cfg.Origins(),
		RateLimit:   cfg.RateLimit,
	}, logger)
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	serverErr := make(chan error, 2)
	go func() {
		serverErr <- httpServer.Start()
	}()

	var grpcServer interface{ GracefulStop() }
	if cfg.GRPCListen != "" {
		lis, err := net.Listen("tcp", cfg.GRPCListen)
		if err != nil {
			logger.Error("failed to listen", "address", cfg.GRPCListen, "error", err)
			os.Exit(1)
		}

		checker := grpchealth.NewChecker(svc.Ping, logger)
		srv := grpchealth.NewServer(checker)
		grpcServer = srv

		go func() {
			logger.Info("grpc health server listening", "address", cfg.GRPCListen)
			serverErr <- srv.Serve(lis)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
			exitCode = 1
		}
	}

	logger.Info("shutting down")

	if grpcServer != nil {
		logger.Info("shutting down grpc server")
		grpcServer.GracefulStop()
	}

	if err := httpServer.Stop(cfg.ShutdownTimeout); err != nil {
		logger.Error("server shutdown failed", "error", err)
		exitCode = 1
	}

	if err := st.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
