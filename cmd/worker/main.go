// Package main runs the background worker: notification delivery and expiry sweeps.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SwipeSavdev/camp-card-sub005/config"
	"github.com/SwipeSavdev/camp-card-sub005/internal/consents"
	"github.com/SwipeSavdev/camp-card-sub005/internal/notifications"
	"github.com/SwipeSavdev/camp-card-sub005/internal/offers"
	"github.com/SwipeSavdev/camp-card-sub005/internal/subscriptions"
	"github.com/SwipeSavdev/camp-card-sub005/internal/worker"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/database"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/queue"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	notificationRepo := notifications.NewRepository(pool)
	mailer := worker.NewSMTPMailer(cfg.Email)
	processor := worker.NewNotificationProcessor(notificationRepo, jobQueue, mailer, logger)

	sweeper := worker.NewSweeper(
		subscriptions.NewRepository(pool),
		offers.NewRepository(pool),
		consents.NewRepository(pool),
		time.Hour,
		logger,
	)

	go processor.Run(ctx)
	go sweeper.Run(ctx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
