package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/api"
	"github.com/soclink/soclink/internal/api/handlers"
	"github.com/soclink/soclink/internal/auth"
	"github.com/soclink/soclink/internal/config"
	"github.com/soclink/soclink/internal/dashboard"
	"github.com/soclink/soclink/internal/db"
	"github.com/soclink/soclink/internal/incidents"
	"github.com/soclink/soclink/internal/metrics"
	"github.com/soclink/soclink/internal/siem"
	"github.com/soclink/soclink/internal/sla"
	"github.com/soclink/soclink/internal/sources"
	"github.com/soclink/soclink/internal/storage/redis"
	"github.com/soclink/soclink/internal/tenants"
	"github.com/soclink/soclink/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Database
	database, err := db.NewConnection(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := db.NewRepository(database)

	// Redis
	cache := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cache.Close()

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	siemClient := siem.NewClient(siem.Config{
		BaseURL:        cfg.SIEM.BaseURL,
		APIKey:         cfg.SIEM.APIKey,
		VerifySSL:      cfg.SIEM.VerifySSL,
		RequestTimeout: cfg.SIEM.RequestTimeout,
		ConnectTimeout: cfg.SIEM.ConnectTimeout,
		RateLimit:      cfg.SIEM.RateLimit,
	}, cache, logger, collector)

	// Services
	authSvc := auth.NewService(repo, logger, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	incidentSvc := incidents.NewService(repo, siemClient, logger, collector)
	sourceSvc := sources.NewService(repo, logger, collector)
	slaAgg := sla.NewAggregator(repo, logger, collector)
	tenantSvc := tenants.NewService(repo, logger)
	userSvc := users.NewService(repo, logger)
	dashboardSvc := dashboard.NewService(repo)

	handler := handlers.NewHandler(handlers.Deps{
		Repo:      repo,
		Auth:      authSvc,
		Incidents: incidentSvc,
		Sources:   sourceSvc,
		SLA:       slaAgg,
		Tenants:   tenantSvc,
		Users:     userSvc,
		Dashboard: dashboardSvc,
		Logger:    logger,
	})

	server := api.NewServer(cfg, authSvc, handler, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
