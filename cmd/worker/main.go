package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderunr/judge/internal/config"
	"github.com/coderunr/judge/internal/processor"
	"github.com/coderunr/judge/internal/queue"
	"github.com/coderunr/judge/internal/sandbox"
	"github.com/coderunr/judge/internal/submission"
	"github.com/coderunr/judge/internal/worker"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// workerIdentity resolves this process's identity for slot allocation
// and registry bookkeeping: the JUDGE_WORKER_IDENTITY env var if set
// (deployments running worker-0, worker-1, ... set this), else the
// hostname, mirroring how original_source/worker/app/worker_manager.py
// identifies workers by hostname-pid.
func workerIdentity() string {
	if id := os.Getenv("JUDGE_WORKER_IDENTITY"); id != "" {
		return id
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "worker-unknown"
	}
	return hostname
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := logrus.New()
	logger.SetLevel(cfg.GetLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	identity := workerIdentity()
	logger.WithField("worker_identity", identity).Info("starting judge worker")

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

	submissionRepo := submission.NewRepository(db)
	submissionQueue := queue.New(redisClient, cfg.Redis.RedisPrefix)
	registry := worker.NewRegistry(redisClient, cfg.Redis.RedisPrefix, 90*time.Second)

	driver := sandbox.NewDriver(cfg.Sandbox.IsolatePath, cfg.Sandbox.EnableNetwork)
	proc := processor.New(driver, submissionRepo, cfg.Sandbox, logger)

	runtime := worker.New(identity, submissionQueue, proc, registry, logger)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- runtime.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down judge worker...")
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			logger.WithError(err).Error("worker runtime exited with error")
		}
	}

	logger.Info("judge worker exited")
}
