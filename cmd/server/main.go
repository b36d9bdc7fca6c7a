package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutor_crm/internal/app"
	"github.com/Freeeeeet/tutor_crm/internal/config"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)

	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Sugar().Fatalw("Failed to start application", "error", err)
	}
	defer application.Close()

	logger.Sugar().Infow("Tutor CRM started",
		"environment", cfg.Environment,
		"access_token_ttl", cfg.AccessTokenTTL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Sugar().Infow("Shutting down")
}
