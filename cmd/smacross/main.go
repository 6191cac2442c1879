package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"smacross/internal/config"
	"smacross/internal/engine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))

	var journal *engine.SignalJournal
	if cfg.SignalsPath != "" {
		journal, err = engine.NewSignalJournal(cfg.SignalsPath, generateRunID())
		if err != nil {
			log.Fatalf("signal journal error: %v", err)
		}
		defer func() {
			if err := journal.Close(); err != nil {
				log.Printf("failed to close signal journal: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting", "source", cfg.Source, "symbol", cfg.Symbol, "fast", cfg.FastPeriod, "slow", cfg.SlowPeriod)
	eng := engine.New(cfg, engine.NewSource(cfg), journal, os.Stdout)
	if _, err := eng.Run(ctx); err != nil {
		log.Printf("run failed: %v", err)
		stop()
		if journal != nil {
			_ = journal.Close()
		}
		os.Exit(1)
	}
}

func generateRunID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	return timestamp + "-" + uuid.NewString()[:8]
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
