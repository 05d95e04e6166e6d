// Package main is the entry point for the Dental Clinic ledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/dental-clinic/backend/config"
	"github.com/dental-clinic/backend/internal/infra/cache"
	"github.com/dental-clinic/backend/internal/infra/db"
	"github.com/dental-clinic/backend/internal/infra/dependency"
	"github.com/dental-clinic/backend/internal/integration/persistence/model"
)

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting Dental Clinic Ledger API",
		"environment", cfg.Server.Environment,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"database_driver", cfg.Database.Driver,
	)

	opts := dependency.Options{}

	// Initialize database connection
	if cfg.Database.Driver != config.DriverMemory {
		database, err := db.NewConnection(&cfg.Database)
		if err != nil {
			slog.Error("Database connection failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("Failed to close database connection", "error", err)
			}
		}()

		// Run database migrations
		if err := database.AutoMigrate(&model.FinancialTransactionModel{}); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database migrations completed successfully")

		opts.DB = database.DB()
		opts.DBHealthChecker = database.HealthCheck
	} else {
		slog.Warn("Using in-memory ledger; transactions are lost on restart")
	}

	// Initialize summary cache
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			slog.Warn("Redis connection failed, running without summary cache", "error", err)
		} else {
			opts.Redis = client
			defer closeRedis(client)
		}
	}

	injector := dependency.NewInjector(cfg, opts)
	engine := injector.Router.Setup(cfg.Server.Environment)

	// Expire stale rate limiter entries in the background
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	cleanupInterval := cfg.Ledger.WriteRateWindow
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				injector.WriteRateLimiter.Cleanup()
			}
		}
	}()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server exited properly")
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		slog.Error("Failed to close redis connection", "error", err)
	}
}
