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
	"github.com/angelmondragon/speak2see-backend/internal/workflow/consumer"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/instance"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/angelmondragon/speak2see-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	infra, err := bootstrap.NewInfra(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap infrastructure", err)
		os.Exit(1)
	}
	defer func() {
		if err := infra.Close(); err != nil {
			logg.Error(context.Background(), "error closing infrastructure", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	infra.AddCloser(pubsubClient.Close)

	runner, err := bootstrap.NewRunner(ctx, cfg, logg, infra, prometheus.DefaultRegisterer)
	if err != nil {
		logg.Error(ctx, "failed to build workflow runner", err)
		os.Exit(1)
	}

	workflowConsumer, err := consumer.NewConsumer(runner, pubsubClient.WorkflowSubscriber(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create workflow consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		Consumer: workflowConsumer,
		Dependencies: map[string]pinger{
			"database": infra.DB,
			"redis":    infra.Redis,
			"gcs":      infra.GCS,
			"pubsub":   pubsubClient,
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
