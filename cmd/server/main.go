// Package main is the entry point for the cadence HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/handler"
	"github.com/popeskul/cadence/internal/infrastructure/connect"
	"github.com/popeskul/cadence/internal/infrastructure/migrate"
	"github.com/popeskul/cadence/internal/metrics"
	"github.com/popeskul/cadence/internal/middleware"
	"github.com/popeskul/cadence/internal/repository"
	"github.com/popeskul/cadence/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		runner := migrate.NewRunner(&migrate.Config{
			DatabaseURL:    cfg.Database.GetURL(),
			MigrationsPath: cfg.Database.MigrationsPath,
		}, logger)
		if err := runner.Up(); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	db, err := connect.Postgres(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	redisClient, err := connect.Redis(context.Background(), &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	repo := repository.NewRepository(db)
	svc, err := service.NewService(cfg, repo, redisClient, logger)
	if err != nil {
		logger.Fatal("Failed to build services", zap.Error(err))
	}

	router := setupRouter(handler.NewHandler(svc, logger), cfg.Security.CronSecret)

	middlewareConfig := &middleware.Config{
		Logger:         logger,
		RateLimit:      rate.Limit(cfg.Middleware.RateLimit),
		RateLimitBurst: cfg.Middleware.RateLimitBurst,
		RequestTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	if cfg.Middleware.EnableCORS {
		middlewareConfig.CORS = middleware.DefaultCORSConfig(cfg.Middleware.AllowedOrigins...)
	}

	chain, limiter := middleware.Chain(middlewareConfig)
	defer limiter.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      chain(router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout+5) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.Scheduler.AutoStart {
		if err := svc.Scheduler.Start(); err != nil {
			logger.Error("Failed to start scheduler on startup", zap.Error(err))
		} else {
			logger.Info("Scheduler started automatically on application startup")
		}
	}

	go func() {
		logger.Info("Starting server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if svc.Scheduler.IsRunning() {
		if err := svc.Scheduler.Stop(); err != nil {
			logger.Error("Failed to stop scheduler", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
