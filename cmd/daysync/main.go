package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/daysync/adapter/cli"
	"github.com/felixgeelhaar/daysync/internal/app"
	"github.com/felixgeelhaar/daysync/pkg/config"
	"github.com/felixgeelhaar/daysync/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Cold-start merge: pull and reconcile once per day before commands run.
	if err := container.Engine.InitData(ctx); err != nil {
		logger.Warn("initial sync failed, continuing with local data", "error", err)
	}

	cli.SetApp(&cli.App{Engine: container.Engine, Tokens: container.Tokens})
	cli.ExecuteContext(ctx)
}
