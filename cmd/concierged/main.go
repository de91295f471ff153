package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"concierge-backend/config"
	"concierge-backend/internal/allocation"
	"concierge-backend/internal/api"
	"concierge-backend/internal/audit"
	"concierge-backend/internal/booking"
	"concierge-backend/internal/db"
	"concierge-backend/internal/logger"
	"concierge-backend/internal/occupant"
	"concierge-backend/internal/reconcile"
	"concierge-backend/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	// Setup logger
	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.ServiceName)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()
	zlog.Info("configuration loaded", zap.String("path", configPath))

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	zlog.Info("database initialized", zap.String("driver", cfg.Database.Driver))

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Audit trail: one sequential log file and the activities table.
	dispatcher := audit.NewDispatcher(audit.Options{
		Workers:      cfg.Audit.Workers,
		QueueSize:    cfg.Audit.QueueSize,
		MaxAttempts:  cfg.Audit.MaxAttempts,
		SinkTimeout:  cfg.Audit.SinkTimeout,
		RetryBackoff: cfg.Audit.RetryBackoff,
	}, zlog.Named("audit"), audit.NewMetrics(registry),
		audit.NewFileSink(cfg.Audit.LogPath),
		audit.NewStoreSink(appStore),
	)
	dispatcher.Start(ctx)

	rooms := allocation.NewManager(appStore, dispatcher, zlog.Named("allocation"), registry)
	bookings := booking.NewLifecycle(appStore, dispatcher, zlog.Named("booking"))
	occupants := occupant.NewService(appStore, dispatcher, zlog.Named("occupant"))

	reconciler := reconcile.New(cfg.Reconcile, appStore, dispatcher, zlog.Named("reconcile"), registry)
	go reconciler.Run(ctx)

	// Initialize router
	handler := api.NewHandler(rooms, bookings, occupants, appStore, zlog)
	router := api.NewRouter(cfg.Server, handler, zlog.Named("http"), registry)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		zlog.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	zlog.Info("shutdown signal received, stopping services")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("HTTP server Shutdown", zap.Error(err))
	}

	// Flush queued audit entries before the workers are cancelled.
	dispatcher.Close()
	cancel()

	zlog.Info("server gracefully stopped")
}
