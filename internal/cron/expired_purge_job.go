package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/internal/items"
	"github.com/angelmondragon/speak2see-backend/pkg/db/models"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/angelmondragon/speak2see-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const ExpiredPurgeJobName = "expired-item-purge"

type expiredItemsRepo interface {
	ListExpired(ctx context.Context, now int64, limit int) ([]models.ProcessingItem, error)
	Delete(ctx context.Context, ownerID string, itemID uuid.UUID) error
}

type blobPurger interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

type ExpiredPurgeJobParams struct {
	Logger    *logger.Logger
	Items     expiredItemsRepo
	Blobs     blobPurger
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

// NewExpiredPurgeJob removes items past expireAt together with their blobs.
func NewExpiredPurgeJob(params ExpiredPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if params.Blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &expiredPurgeJob{
		logg:    params.Logger,
		items:   params.Items,
		blobs:   params.Blobs,
		metrics: params.Metrics,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type expiredPurgeJob struct {
	logg    *logger.Logger
	items   expiredItemsRepo
	blobs   blobPurger
	metrics *metrics.CronJobMetrics
	batch   int
	now     func() time.Time
}

func (j *expiredPurgeJob) Name() string { return ExpiredPurgeJobName }

func (j *expiredPurgeJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.items.ListExpired(ctx, now.Unix(), j.batch)
	if err != nil {
		return fmt.Errorf("list expired items: %w", err)
	}

	var (
		errs   error
		purged int
	)
	for _, item := range expired {
		// blobs first so a failed row delete is retried with nothing orphaned
		if err := j.blobs.DeletePrefix(ctx, blobs.ItemPrefix(item.ItemID)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete blobs for %s: %w", item.ItemID, err))
			continue
		}
		if err := j.items.Delete(ctx, item.OwnerID, item.ItemID); err != nil && !errors.Is(err, items.ErrNotFound) {
			errs = multierr.Append(errs, fmt.Errorf("delete item %s: %w", item.ItemID, err))
			continue
		}
		purged++
	}
	j.metrics.AddAffected(j.Name(), purged)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"now":        now,
		"candidates": len(expired),
		"purged":     purged,
	})
	j.logg.Info(logCtx, "expired item purge complete")
	return errs
}
