package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartorder/configs"
	"smartorder/events"
	"smartorder/middlewares"
	"smartorder/routes"
	"smartorder/services"
	"smartorder/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := configs.LoadConfig()
	logger := configs.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	if err := configs.ConnectionDB(cfg); err != nil {
		logger.WithError(err).Fatal("connect database failed")
	}
	db := configs.DB()
	if err := configs.SetupDatabase(db); err != nil {
		logger.WithError(err).Fatal("migrate failed")
	}
	if err := configs.SeedStaff(db, logger); err != nil {
		logger.WithError(err).Fatal("seed staff failed")
	}
	if err := configs.SeedMenu(db); err != nil {
		logger.WithError(err).Fatal("seed menu failed")
	}

	// Live board + event fan-out
	hub := ws.NewOrderHub(logger)
	go hub.Run(ctx)
	publishers := events.Multi{hub}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.WithError(err).Fatal("create kafka producer failed")
		}
		defer kp.Close()
		publishers = append(publishers, kp)
	}

	// Rate limiting
	var limiter middlewares.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, limiter will fail open until it is back")
		}
		limiter = middlewares.NewRedisLimiter(rdb, cfg.RateLimitRPS, cfg.RateLimitBurst)
	} else if cfg.RateLimitRPS > 0 {
		limiter = middlewares.NewMemoryLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// HTTP
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, routes.Deps{
		Config:  cfg,
		DB:      db,
		Log:     logger,
		Hub:     hub,
		Events:  publishers,
		Limiter: limiter,
		Mailer:  services.LogMailer{Log: logger},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
