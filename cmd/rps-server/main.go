package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-RPS-bot/internal/builder"
	appcfg "github.com/park285/Cheese-RPS-bot/internal/config"
	"github.com/park285/Cheese-RPS-bot/internal/httpapi"
	"github.com/park285/Cheese-RPS-bot/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	deps, err := builder.New(cfg, logger)
	if err != nil {
		logger.Fatal("rps_init_error", zap.Error(err))
	}

	srv := httpapi.New(deps.Engine, deps.Queries, deps.Validator, deps.Messages,
		httpapi.WithLogger(logger),
		httpapi.WithTimeouts(time.Duration(cfg.ReadTimeoutSec)*time.Second, time.Duration(cfg.WriteTimeoutSec)*time.Second),
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rps_server_listen", zap.String("addr", cfg.ListenAddr), zap.String("backend", cfg.StoreBackend))
		errCh <- srv.ListenAndServe(cfg.ListenAddr)
	}()

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("rps_server_shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("rps_server_error", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("rps_server_shutdown_error", zap.Error(err))
	}
	if err := deps.Close(); err != nil {
		logger.Warn("rps_deps_close_error", zap.Error(err))
	}
}
