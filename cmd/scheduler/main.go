package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/config"
	"github.com/soclink/soclink/internal/db"
	"github.com/soclink/soclink/internal/queue"
	"github.com/soclink/soclink/internal/scheduler"
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

	sched := scheduler.NewScheduler(repo, jobQueue, logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	cancel()
	logger.Info("Scheduler exited")
}
