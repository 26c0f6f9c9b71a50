package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlapshin/authkeep/internal/client/cli"
	"github.com/mlapshin/authkeep/internal/client/config"
	"github.com/mlapshin/authkeep/internal/logging"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewZerologLogger(os.Stderr, cfg.LogLevel, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
