package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notegraph/application/physics"
	"notegraph/application/session"
	"notegraph/domain/services"
	"notegraph/infrastructure/config"
	"notegraph/interfaces/http/rest"
	"notegraph/pkg/observability"
)

func main() {
	// Initialize context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	metrics := observability.NewCollector("notegraph")

	// The session owns the node arena; its tick loop is the only writer.
	opts := session.DefaultOptions()
	opts.TickInterval = cfg.TickInterval
	opts.ContainerWidth = cfg.ContainerWidth
	opts.ContainerHeight = cfg.ContainerHeight

	builder := services.NewGraphBuilder(services.NewLinkExtractor(), logger)
	sess := session.NewSession(opts, builder, logger, metrics)
	go sess.Run(ctx)

	// Optional live tuning of force constants from a watched file.
	if cfg.ForceSettingsPath != "" {
		watcher, err := config.NewForceWatcher(cfg.ForceSettingsPath, logger)
		if err != nil {
			logger.Warn("Force settings watcher disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(settings physics.ForceSettings) {
				if err := sess.UpdateForces(settings); err != nil {
					logger.Warn("Rejected force settings update", zap.Error(err))
				}
			})
			if err := sess.UpdateForces(watcher.Current()); err != nil {
				logger.Warn("Rejected initial force settings", zap.Error(err))
			}
			watcher.Start()
			defer watcher.Stop()
		}
	}

	router := rest.NewRouter(cfg, sess, metrics, logger)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown: stop accepting requests, then stop the tick loop
	// between ticks.
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	cancel()

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
