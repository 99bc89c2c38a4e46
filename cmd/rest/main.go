package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"littlesteps-be/internal/bootstrap"
	"littlesteps-be/internal/config"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/server"
	"littlesteps-be/internal/tracer"
	"littlesteps-be/pkg/database"
	"littlesteps-be/pkg/events"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer appLogger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, appLogger)
	defer shutdownTracer(context.Background())

	if err := cfg.ValidateCleanup(); err != nil {
		appLogger.Warn("BOOT", "Cleanup endpoint will reject every request", map[string]interface{}{"error": err.Error()})
	}

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.NewContainer(ctx, gormDB, cfg, appLogger)
	if err != nil {
		log.Fatalf("Unable to build container: %v", err)
	}
	defer container.Close()

	// Audit events come from NATS when it is configured, otherwise from the
	// in-process channel.
	if container.NatsSubscriber != nil {
		err = container.NatsSubscriber.Subscribe(ctx, events.Subject(">"), "littlesteps-audit", container.ConsumerService.HandleEvent)
	} else {
		err = container.ConsumerService.Consume(ctx)
	}
	if err != nil {
		log.Fatalf("Unable to start event consumer: %v", err)
	}

	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("BOOT", "Shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("BOOT", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
