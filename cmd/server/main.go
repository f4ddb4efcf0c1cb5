package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/api"
	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/config"
	"github.com/ripenred/checkout-api/internal/repository"
	"github.com/ripenred/checkout-api/internal/repository/postgres"
	"github.com/ripenred/checkout-api/internal/service"
	"github.com/ripenred/checkout-api/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Resolve the upstream base URL, preferring the remote runtime config
	baseURL := backend.ResolveBaseURL(ctx, cfg.Backend, logger)
	client := backend.NewClient(cfg.Backend, baseURL, logger)

	sessions := session.NewStore(cfg.Checkout.SessionTTL)

	// The audit log needs Postgres; without DB_NAME the checkout still
	// works, just without event recording or support lookups
	var repos *repository.Repositories
	if cfg.Database.DBName != "" {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		repos = postgres.NewRepositories(db, logger)
	} else {
		logger.Warn("DB_NAME not set, checkout event recording disabled")
	}

	var events repository.EventStore
	if repos != nil {
		events = repos.Event
	}
	services := service.NewServices(cfg, client, sessions, events, logger)

	router := api.NewRouter(cfg, client, services, sessions, repos, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("backend", baseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}
