package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/config"
	"github.com/soclink/soclink/internal/db"
	"github.com/soclink/soclink/internal/metrics"
	"github.com/soclink/soclink/internal/notify"
	"github.com/soclink/soclink/internal/queue"
	"github.com/soclink/soclink/internal/scheduler"
	"github.com/soclink/soclink/internal/siem"
	"github.com/soclink/soclink/internal/sla"
	"github.com/soclink/soclink/internal/sources"
	"github.com/soclink/soclink/internal/storage/redis"
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

	repo := db.NewRepository(database)

	// Redis
	cache := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cache.Close()

	jobQueue := queue.NewRedisQueue(cache.Client)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	siemClient := siem.NewClient(siem.Config{
		BaseURL:        cfg.SIEM.BaseURL,
		APIKey:         cfg.SIEM.APIKey,
		VerifySSL:      cfg.SIEM.VerifySSL,
		RequestTimeout: cfg.SIEM.RequestTimeout,
		ConnectTimeout: cfg.SIEM.ConnectTimeout,
		RateLimit:      cfg.SIEM.RateLimit,
	}, cache, logger, collector)

	sourceSvc := sources.NewService(repo, logger, collector)
	slaAgg := sla.NewAggregator(repo, logger, collector)
	drainer := notify.NewDrainer(repo, &notify.LogSink{Logger: logger}, logger, collector)

	pool := scheduler.NewPool(repo, jobQueue, siemClient, sourceSvc, slaAgg, drainer, logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go pool.Start(ctx)

	logger.Info("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	logger.Info("Worker exited")
}
