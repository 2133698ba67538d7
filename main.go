package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"creator-payments/internal/app"
	"creator-payments/internal/config"
	"creator-payments/internal/database"
	grpcServer "creator-payments/internal/grpc"
	"creator-payments/internal/handlers"
	"creator-payments/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logger.Setup(cfg.Env, cfg.LogLevel)

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logrus.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
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

	if err := handlers.RegisterValidators(); err != nil {
		logrus.Fatalf("Failed to register validators: %v", err)
	}

	r := handlers.NewRouter(handlers.RouterConfig{
		Payments:    paymentService,
		JWTSecret:   cfg.JWTSecret,
		RateLimiter: handlers.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Health: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	go func() {
		if err := grpcServer.StartGRPCServer(cfg.GRPCPort, paymentService); err != nil {
			logrus.Fatalf("gRPC server failed: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
}
