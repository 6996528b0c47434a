package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/pong/internal/config"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	srv, cleanup, err := injector.InitializeServer(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error building server:", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Provide()
	logger.Info("Pong server starting",
		log.Int("port", cfg.Server.Port),
		log.Bool("quic", cfg.QUIC.Enabled),
		log.Int("default_max_score", cfg.Game.DefaultMaxScore))

	if err = srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", log.Error(err))
		cleanup()
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
