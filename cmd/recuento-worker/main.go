package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"recuento/internal/amqp"
	"recuento/internal/config"
	"recuento/internal/ledger"
	"recuento/internal/log"
	"recuento/internal/report"
	"recuento/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting recuento-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report export worker")
		os.Exit(1)
	}

	store, err := ledger.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to initialize ledger store", log.FieldError, err, "dir", cfg.DataDir)
		os.Exit(1)
	}

	exporter, err := worker.NewExportWorker(report.NewAggregator(store), cfg.ReportsDir)
	if err != nil {
		logger.Error("Failed to initialize export worker", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	// Consume until shutdown, reconnecting with backoff on broken
	// connections.
	attempt := 0
	for {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			wait := amqp.Backoff(attempt)
			attempt++
			logger.Warn("AMQP connect failed, retrying",
				log.FieldError, err, "attempt", attempt, "wait", wait.String())
			select {
			case <-ctx.Done():
				logger.Info("Worker stopped")
				return
			case <-time.After(wait):
				continue
			}
		}
		attempt = 0
		logger.Info("Consuming ledger append events", "queue", cfg.AMQPQueue)

		err = client.ConsumeLedgerAppended(ctx, func(msg *amqp.LedgerAppendedMessage) error {
			return exporter.HandleAppendMessage(ctx, msg)
		})
		client.Close()
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			logger.Info("Worker stopped")
			return
		}
		if err != nil && !amqp.IsConnectionError(err) {
			logger.Error("Consumer failed", log.FieldError, err)
			os.Exit(1)
		}
		logger.Warn("AMQP connection lost, reconnecting", log.FieldError, err)
	}
}
