package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderunr/judge/internal/api"
	"github.com/coderunr/judge/internal/config"
	"github.com/coderunr/judge/internal/language"
	"github.com/coderunr/judge/internal/queue"
	"github.com/coderunr/judge/internal/ratelimit"
	"github.com/coderunr/judge/internal/submission"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := logrus.New()
	logger.SetLevel(cfg.GetLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	logger.Info("starting judge dispatch API")

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.WithError(err).Fatal("failed to open database connection")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.WithError(err).Fatal("failed to reach database")
	}

	redisClient := queue.Connect(cfg.Redis.Addr(), cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	defer redisClient.Close()

	languages := language.NewRepository(db)
	if err := language.Seed(context.Background(), languages); err != nil {
		logger.WithError(err).Fatal("failed to seed language catalog")
	}

	submissionRepo := submission.NewRepository(db)
	submissionQueue := queue.New(redisClient, cfg.Redis.RedisPrefix)
	submissions := submission.NewService(submissionRepo, languages, submissionQueue)

	limiter := ratelimit.New(redisClient, cfg.Redis.RedisPrefix)

	h := api.NewHandler(submissions, languages, logger)
	router := api.NewRouter(h, api.RouterConfig{
		BodyLimitBytes: cfg.RequestBodyLimit,
		RequestTimeout: 60 * time.Second,
		RateLimiter:    limiter,
		RateLimitConfig: ratelimit.Config{
			Enabled:        cfg.RateLimit.Enabled,
			PerMinute:      cfg.RateLimit.PerMinute,
			PerHour:        cfg.RateLimit.PerHour,
			Strategy:       ratelimit.Strategy(cfg.RateLimit.Strategy),
			ExemptPrefixes: []string{"/docs", "/redoc", "/openapi.json", "/health", "/"},
		},
	}, logger)

	server := &http.Server{
		Addr:              cfg.BindAddress,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("dispatch API listening on %s", cfg.BindAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down dispatch API...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
		os.Exit(1)
	}

	logger.Info("dispatch API exited")
}
