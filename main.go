package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/koopa0/flightgpt/api"
	"github.com/koopa0/flightgpt/internal/app"
	"github.com/koopa0/flightgpt/internal/config"
	"github.com/koopa0/flightgpt/internal/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes and starts the HTTP server, blocking until SIGINT/SIGTERM.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{Level: logLevel()})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("closing application", "error", cerr)
		}
	}()

	srv := api.NewServer(
		api.NewHealthHandler(a.DBPool, logger.With("component", "health")),
		api.NewChatHandler(api.ChatConfig{
			Invoker:  a.Pipeline(),
			Streamer: a.Observer(),
			Store:    a.Store,
			Logger:   logger.With("component", "chat"),
		}),
		api.NewMessagesHandler(a.Store, logger.With("component", "messages")),
		logger.With("component", "http"),
	)

	return srv.Run(ctx, cfg.Addr)
}

// logLevel reads FLIGHTGPT_LOG_LEVEL; default info.
func logLevel() slog.Level {
	switch os.Getenv("FLIGHTGPT_LOG_LEVEL") {
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
