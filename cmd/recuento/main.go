package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"recuento/internal/amqp"
	"recuento/internal/config"
	"recuento/internal/extract"
	apphttp "recuento/internal/http"
	"recuento/internal/ledger"
	"recuento/internal/log"
	"recuento/internal/report"
	"recuento/internal/schema"
	"recuento/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	store, err := ledger.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to initialize ledger store", log.FieldError, err, "dir", cfg.DataDir)
		os.Exit(1)
	}

	registry := schema.NewRegistry()
	// Re-pin the baseline schema from a previously uploaded workbook.
	if f, err := os.Open(cfg.BaselinePath); err == nil {
		sheets, err := schema.ReadWorkbookSchema(f)
		f.Close()
		if err != nil {
			logger.Warn("Stored baseline unreadable, using built-in schema",
				log.FieldError, err, log.FieldFile, cfg.BaselinePath)
		} else {
			registry.SetBaseline(sheets, cfg.BaselinePath)
			logger.Info("Baseline schema restored", log.FieldFile, cfg.BaselinePath)
		}
	}

	var extractor extract.Extractor
	switch cfg.ExtractorBackend {
	case "gemini":
		gem, err := extract.NewGemini(context.Background(), cfg.GeminiModel, registry)
		if err != nil {
			logger.Error("Failed to initialize Gemini extractor", log.FieldError, err)
			os.Exit(1)
		}
		extractor = gem
		logger.Info("Initialized Gemini extractor", "model", cfg.GeminiModel)
	default:
		extractor = &extract.Mock{}
		logger.Info("Initialized mock extractor")
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer events.Close()
		logger.Info("Ledger events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
	}

	processor := services.NewProcessor(store, registry, extractor, events, cfg.SeparatorStyle())
	reports := report.NewAggregator(store)

	srv := apphttp.NewServer(":"+cfg.Port, processor, registry, reports, cfg.BaselinePath)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting recuento server",
		"port", cfg.Port, "data_dir", cfg.DataDir, "extractor", cfg.ExtractorBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
