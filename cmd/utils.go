package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"crf-trainer/internal/config"
	"crf-trainer/internal/database"

	"gorm.io/gorm"
)

// SetupLogging installs a text slog handler on stderr at the given level.
func SetupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		log.Printf("invalid log level %q, using INFO", level)
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func LoadConfig(envFile string) *config.Config {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	return cfg
}

func OpenRegistry(cfg *config.Config) *gorm.DB {
	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}
