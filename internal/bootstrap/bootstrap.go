// Package bootstrap wires infrastructure clients and the workflow runner shared
// by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/speak2see-backend/internal/adapters/image"
	"github.com/angelmondragon/speak2see-backend/internal/adapters/prompt"
	"github.com/angelmondragon/speak2see-backend/internal/adapters/transcription"
	"github.com/angelmondragon/speak2see-backend/internal/analytics/writer"
	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/internal/items"
	"github.com/angelmondragon/speak2see-backend/internal/workflow"
	"github.com/angelmondragon/speak2see-backend/pkg/bigquery"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/db"
	"github.com/angelmondragon/speak2see-backend/pkg/instance"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/angelmondragon/speak2see-backend/pkg/metrics"
	"github.com/angelmondragon/speak2see-backend/pkg/migrate"
	"github.com/angelmondragon/speak2see-backend/pkg/redis"
	"github.com/angelmondragon/speak2see-backend/pkg/speech"
	"github.com/angelmondragon/speak2see-backend/pkg/storage/gcs"
	"github.com/angelmondragon/speak2see-backend/pkg/vertex"
)

// Infra holds the process-lifetime clients every binary needs.
type Infra struct {
	DB    *db.Client
	Redis *redis.Client
	GCS   *gcs.Client
	Blobs blobs.Store
	Items items.Repository

	closers []func() error
}

// NewInfra connects to the database, Redis and the bucket, running dev
// migrations when enabled. On error everything opened so far is closed.
func NewInfra(ctx context.Context, cfg *config.Config, logg *logger.Logger) (_ *Infra, err error) {
	infra := &Infra{}
	defer func() {
		if err != nil {
			err = multierr.Append(err, infra.Close())
		}
	}()

	infra.DB, err = db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	infra.closers = append(infra.closers, infra.DB.Close)

	if err = migrate.MaybeRunDev(ctx, cfg, logg, infra.DB); err != nil {
		return nil, fmt.Errorf("run dev migrations: %w", err)
	}

	infra.Redis, err = redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}
	infra.closers = append(infra.closers, infra.Redis.Close)

	infra.GCS, err = gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap gcs: %w", err)
	}
	infra.closers = append(infra.closers, infra.GCS.Close)

	infra.Blobs = blobs.NewGCSStore(infra.GCS)
	infra.Items = items.NewRepository(infra.DB.DB())
	return infra, nil
}

// AddCloser registers fn to run, in reverse order, on Close.
func (i *Infra) AddCloser(fn func() error) {
	i.closers = append(i.closers, fn)
}

// Close releases every client and reports all failures together.
func (i *Infra) Close() error {
	var errs error
	for idx := len(i.closers) - 1; idx >= 0; idx-- {
		errs = multierr.Append(errs, i.closers[idx]())
	}
	i.closers = nil
	return errs
}

// NewRunner builds the workflow runner with Google adapters. Analytics rows are
// written to BigQuery only when the feature flag is on.
func NewRunner(ctx context.Context, cfg *config.Config, logg *logger.Logger, infra *Infra, reg prometheus.Registerer) (*workflow.Runner, error) {
	vertexClient, err := vertex.New(cfg.GCP, cfg.Vertex)
	if err != nil {
		return nil, fmt.Errorf("vertex client: %w", err)
	}
	speechClient := speech.New(cfg.GCP, cfg.Speech)

	orch, err := workflow.NewOrchestrator(workflow.OrchestratorParams{
		Transcriber: transcription.NewGoogle(speechClient, infra.Blobs, cfg.Speech.RequestTimeout),
		Prompter:    prompt.NewVertex(vertexClient, cfg.Vertex.RequestTimeout),
		Imager: image.NewVertex(vertexClient, infra.Blobs, image.Options{
			Seed:          cfg.Vertex.ImageSeed,
			GuidanceScale: cfg.Vertex.GuidanceScale,
			Timeout:       cfg.Vertex.RequestTimeout,
		}),
		Blobs:          infra.Blobs,
		Items:          infra.Items,
		Logger:         logg,
		PromptMaxChars: cfg.Workflow.PromptMaxChars,
		LanguageHint:   cfg.Speech.LanguageCode,
	})
	if err != nil {
		return nil, err
	}

	params := workflow.RunnerParams{
		Orchestrator: orch,
		Claims:       infra.Redis,
		Profiles:     workflow.ProfilesFromConfig(cfg.Workflow),
		ClaimGrace:   cfg.Workflow.ClaimGrace,
		Metrics:      metrics.NewWorkflowMetrics(reg),
		Logger:       logg,
		WorkerID:     instance.GetID(),
	}

	if cfg.FeatureFlags.AnalyticsEnabled {
		bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			return nil, fmt.Errorf("bigquery client: %w", err)
		}
		w, err := writer.New(bq, writer.Config{ExecutionsTable: cfg.BigQuery.ExecutionsTable})
		if err != nil {
			_ = bq.Close()
			return nil, err
		}
		infra.AddCloser(bq.Close)
		infra.AddCloser(func() error { return w.Flush(context.Background()) })
		params.Analytics = w
	}

	return workflow.NewRunner(params)
}
