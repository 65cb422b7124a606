package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/speak2see-backend/api/controllers"
	"github.com/angelmondragon/speak2see-backend/api/routes"
	"github.com/angelmondragon/speak2see-backend/internal/bootstrap"
	"github.com/angelmondragon/speak2see-backend/internal/intake"
	"github.com/angelmondragon/speak2see-backend/internal/query"
	"github.com/angelmondragon/speak2see-backend/internal/workflow"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/instance"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/angelmondragon/speak2see-backend/pkg/metrics"
	"github.com/angelmondragon/speak2see-backend/pkg/pubsub"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	readiness := map[string]controllers.Pinger{
		"database": infra.DB,
		"redis":    infra.Redis,
		"gcs":      infra.GCS,
	}

	// Inline executions outlive their request but not the process.
	execCtx, cancelExecutions := context.WithCancel(context.Background())
	defer cancelExecutions()

	var (
		starter workflow.Starter
		inline  *workflow.InlineStarter
	)
	if cfg.FeatureFlags.InlineDispatch() {
		runner, err := bootstrap.NewRunner(ctx, cfg, logg, infra, prometheus.DefaultRegisterer)
		if err != nil {
			logg.Error(ctx, "failed to build workflow runner", err)
			os.Exit(1)
		}
		inline, err = workflow.NewInlineStarter(execCtx, runner, logg)
		if err != nil {
			logg.Error(ctx, "failed to create inline starter", err)
			os.Exit(1)
		}
		starter = inline
	} else {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		infra.AddCloser(pubsubClient.Close)
		readiness["pubsub"] = pubsubClient

		starter, err = workflow.NewPubSubStarter(pubsubClient, logg)
		if err != nil {
			logg.Error(ctx, "failed to create pubsub starter", err)
			os.Exit(1)
		}
	}

	intakeService, err := intake.NewService(intake.ServiceParams{
		Items:    infra.Items,
		Blobs:    infra.Blobs,
		Starter:  starter,
		Profiles: workflow.ProfilesFromConfig(cfg.Workflow),
		Config:   cfg.Intake,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create intake service", err)
		os.Exit(1)
	}

	queryService, err := query.NewService(infra.Items, infra.Blobs)
	if err != nil {
		logg.Error(ctx, "failed to create query service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"dispatch": cfg.FeatureFlags.WorkflowDispatch,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			Intake:      intakeService,
			Query:       queryService,
			Redis:       infra.Redis,
			Readiness:   readiness,
			HTTPMetrics: metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
			Gatherer:    prometheus.DefaultGatherer,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}

	if inline != nil {
		cancelExecutions()
		inline.Wait()
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
