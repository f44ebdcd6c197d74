// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jason-s-yu/bubugame/internal/config"
	"github.com/jason-s-yu/bubugame/internal/database"
	"github.com/jason-s-yu/bubugame/internal/server"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	logger := newLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(cfg, logger, os.Args[2:]); err != nil {
			logger.Fatalf("migration failed: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize application: %v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Errorf("server exited: %v", err)
		return
	}
	logger.Info("Application gracefully stopped.")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func handleMigrationCommand(cfg *config.Config, logger *logrus.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: server migrate [up|down|status] [args...]")
	}
	url := cfg.GetDatabaseURL()
	if url == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp(url, logger)
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid steps value %q: %w", args[1], err)
			}
			steps = n
		}
		return database.MigrateDown(url, steps, logger)
	case "status":
		return database.MigrateStatus(url, logger)
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
