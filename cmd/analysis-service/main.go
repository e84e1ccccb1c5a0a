package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/recoverlens/recovery-engine/internal/analysis"
	"github.com/recoverlens/recovery-engine/pkg/config"
	"github.com/recoverlens/recovery-engine/pkg/logger"
	"github.com/recoverlens/recovery-engine/pkg/monitoring"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize tracing if enabled
	var tracing *monitoring.TracingManager
	if cfg.Monitoring.TracingEnabled {
		tracing, err = monitoring.NewTracingManager(&monitoring.TracingConfig{
			ServiceName:    "analysis-service",
			ServiceVersion: "1.0.0",
			JaegerEndpoint: cfg.Monitoring.JaegerEndpoint,
			Environment:    os.Getenv("ENVIRONMENT"),
			SamplingRate:   cfg.Monitoring.SamplingRate,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize tracing: %v", err)
		}
	}

	// Initialize Analysis Service
	service, err := analysis.New(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize Analysis Service: %v", err)
	}

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)

	// Start service in a goroutine
	go func() {
		logger.Infof("Starting Analysis Service on %s", addr)
		if err := service.Start(addr); err != nil {
			logger.Errorf("Analysis Service stopped: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Analysis Service...")
	if err := service.Stop(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}

	if tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			logger.Errorf("Error shutting down tracing: %v", err)
		}
	}

	logger.Info("Analysis Service stopped")
}
