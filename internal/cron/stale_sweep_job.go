package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/speak2see-backend/internal/items"
	"github.com/angelmondragon/speak2see-backend/pkg/db/models"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/angelmondragon/speak2see-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	StaleSweepJobName = "stale-execution-sweep"
	defaultBatchSize  = 200
)

type staleItemsRepo interface {
	ListStaleInProgress(ctx context.Context, createdBefore int64, limit int) ([]models.ProcessingItem, error)
	Update(ctx context.Context, ownerID string, itemID uuid.UUID, m items.Mutation) error
}

type StaleSweepJobParams struct {
	Logger  *logger.Logger
	Items   staleItemsRepo
	Metrics *metrics.CronJobMetrics
	// MaxExecution is the longest an execution may legitimately run.
	MaxExecution time.Duration
	Grace        time.Duration
	BatchSize    int
}

// NewStaleSweepJob reconciles items left IN_PROGRESS by executions that died
// before their terminal write.
func NewStaleSweepJob(params StaleSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if params.MaxExecution <= 0 {
		return nil, fmt.Errorf("max execution duration must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &staleSweepJob{
		logg:    params.Logger,
		items:   params.Items,
		metrics: params.Metrics,
		age:     params.MaxExecution + params.Grace,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type staleSweepJob struct {
	logg    *logger.Logger
	items   staleItemsRepo
	metrics *metrics.CronJobMetrics
	age     time.Duration
	batch   int
	now     func() time.Time
}

func (j *staleSweepJob) Name() string { return StaleSweepJobName }

func (j *staleSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.age)
	stale, err := j.items.ListStaleInProgress(ctx, cutoff.Unix(), j.batch)
	if err != nil {
		return fmt.Errorf("list stale items: %w", err)
	}

	var (
		errs  error
		fixed int
	)
	for _, item := range stale {
		err := j.items.Update(ctx, item.OwnerID, item.ItemID, items.TranscriptionFailed())
		switch {
		case err == nil:
			fixed++
		case errors.Is(err, items.ErrTerminalState), errors.Is(err, items.ErrNotFound):
			// finished or purged since the listing
		default:
			errs = multierr.Append(errs, fmt.Errorf("mark %s failed: %w", item.ItemID, err))
		}
	}
	j.metrics.AddAffected(j.Name(), fixed)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(stale),
		"marked":     fixed,
	})
	j.logg.Info(logCtx, "stale execution sweep complete")
	return errs
}
