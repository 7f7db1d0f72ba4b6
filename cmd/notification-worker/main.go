// The notification-worker consumes the expense-created events published by
// the scheduler and fans them out as household notifications.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/worker"
)

func main() {
	_ = godotenv.Load()

	applog.Setup()
	logger := applog.ForComponent(applog.ComponentWorker)

	logger.Info("starting notification-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		slog.Error("AMQP_URL is required for the notification worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	notifier := worker.NewNotifier(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("notification worker configured",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	if err := notifier.Run(ctx); err != nil {
		logger.ErrorContext(ctx, "event consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("notification-worker shutdown complete")
}
