package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/speak2see-backend/internal/bootstrap"
	"github.com/angelmondragon/speak2see-backend/internal/cron"
	"github.com/angelmondragon/speak2see-backend/internal/workflow"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/angelmondragon/speak2see-backend/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	infra, err := bootstrap.NewInfra(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap infrastructure", err)
		os.Exit(1)
	}
	defer func() {
		if err := infra.Close(); err != nil {
			logg.Error(context.Background(), "error closing infrastructure", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(infra.Redis, infra.Redis.LockKey(lockName(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()

	if cfg.FeatureFlags.StaleSweep {
		sweep, err := cron.NewStaleSweepJob(cron.StaleSweepJobParams{
			Logger:       logg,
			Items:        infra.Items,
			Metrics:      metricsCollector,
			MaxExecution: workflow.ProfilesFromConfig(cfg.Workflow).Longest(),
			Grace:        cfg.Cron.SweepGrace,
			BatchSize:    cfg.Cron.BatchSize,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create stale sweep job", err)
			os.Exit(1)
		}
		if err := registry.Register(sweep); err != nil {
			logg.Error(context.Background(), "failed to register stale sweep job", err)
			os.Exit(1)
		}
	}

	purge, err := cron.NewExpiredPurgeJob(cron.ExpiredPurgeJobParams{
		Logger:    logg,
		Items:     infra.Items,
		Blobs:     infra.Blobs,
		Metrics:   metricsCollector,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expired purge job", err)
		os.Exit(1)
	}
	if err := registry.Register(purge); err != nil {
		logg.Error(context.Background(), "failed to register expired purge job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
