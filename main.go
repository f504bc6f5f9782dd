package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"equipapi/pkg/config"
	"equipapi/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.InsecureSecret() {
		logger.Warn(ctx, "JWT_SECRET is not set; using the development fallback secret")
	}

	// Support a lightweight migrate command: `./equipapi migrate`
	// It runs the migrations and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrate(ctx, cfg, logger); err != nil {
			logger.Error(ctx, "migration failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("migration and seeding completed")
		return
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}
