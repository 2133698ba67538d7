package main

import (
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"creator-payments/internal/app"
	"creator-payments/internal/config"
	"creator-payments/internal/database"
	"creator-payments/internal/logger"
	"creator-payments/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logger.Setup(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logrus.Fatal(err)
	}

	var redisClient *redis.Client
	if cfg.Reconcile.StatusCacheTTL > 0 {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	paymentService, err := app.NewPaymentService(cfg, db, redisClient)
	if err != nil {
		logrus.Fatalf("Failed to build payment service: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	if cfg.Reconcile.Enabled {
		client := asynq.NewClient(redisOpt)
		defer client.Close()

		inspector := asynq.NewInspector(redisOpt)
		defer inspector.Close()

		scheduler := worker.NewScheduler(paymentService, client, inspector, cfg.Reconcile.Lookback, cfg.Reconcile.BatchSize)
		c, err := scheduler.Start(cfg.Reconcile.Cron)
		if err != nil {
			logrus.Fatalf("Failed to schedule reconciliation: %v", err)
		}
		defer c.Stop()
	}

	logrus.Info("Starting Asynq Worker...")
	if err := worker.StartWorker(redisOpt, worker.NewWorker(paymentService), cfg.WorkerConcurrency); err != nil {
		logrus.Fatalf("could not run worker: %v", err)
	}
}
