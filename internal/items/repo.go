package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/speak2see-backend/internal/repo"
	"github.com/angelmondragon/speak2see-backend/pkg/db"
	"github.com/angelmondragon/speak2see-backend/pkg/db/models"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the item status store.
type Repository interface {
	Create(ctx context.Context, item *models.ProcessingItem) error
	Update(ctx context.Context, ownerID string, itemID uuid.UUID, m Mutation) error
	Get(ctx context.Context, ownerID string, itemID uuid.UUID) (*models.ProcessingItem, error)
	List(ctx context.Context, ownerID string) ([]models.ProcessingItem, error)
	ListStaleInProgress(ctx context.Context, createdBefore int64, limit int) ([]models.ProcessingItem, error)
	ListExpired(ctx context.Context, now int64, limit int) ([]models.ProcessingItem, error)
	Delete(ctx context.Context, ownerID string, itemID uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository builds an items repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, item *models.ProcessingItem) error {
	if item == nil {
		return fmt.Errorf("item is required")
	}
	if item.UpdatedAt == 0 {
		item.UpdatedAt = item.CreatedAt
	}
	if err := r.DB(ctx).Create(item).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, item.OwnerID, item.ItemID)
		}
		return err
	}
	return nil
}

// Update applies m only while the item is IN_PROGRESS. A repeated write of the
// status the item already holds is a no-op.
func (r *repository) Update(ctx context.Context, ownerID string, itemID uuid.UUID, m Mutation) error {
	if err := m.Validate(); err != nil {
		return err
	}

	res := r.DB(ctx).
		Model(&models.ProcessingItem{}).
		Where("owner_id = ? AND item_id = ? AND processing_status = ?", ownerID, itemID, enums.ProcessingStatusInProgress).
		Updates(map[string]any{
			"processing_status": m.Status,
			"transcription":     m.Transcript,
			"prompt":            m.Prompt,
			"result_image_ref":  m.ResultImageRef,
			"updated_at":        r.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	current, err := r.Get(ctx, ownerID, itemID)
	if err != nil {
		return err
	}
	if current.ProcessingStatus == m.Status {
		return nil
	}
	if current.ProcessingStatus.IsTerminal() {
		return fmt.Errorf("%w: have %s, want %s", ErrTerminalState, current.ProcessingStatus, m.Status)
	}
	return fmt.Errorf("update of %s/%s matched no rows", ownerID, itemID)
}

func (r *repository) Get(ctx context.Context, ownerID string, itemID uuid.UUID) (*models.ProcessingItem, error) {
	var item models.ProcessingItem
	err := r.DB(ctx).
		Where("owner_id = ? AND item_id = ?", ownerID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, ownerID string) ([]models.ProcessingItem, error) {
	var out []models.ProcessingItem
	err := r.DB(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListStaleInProgress returns IN_PROGRESS items created before the cutoff, oldest first.
func (r *repository) ListStaleInProgress(ctx context.Context, createdBefore int64, limit int) ([]models.ProcessingItem, error) {
	var out []models.ProcessingItem
	err := r.Batch(ctx, limit).
		Where("processing_status = ? AND created_at < ?", enums.ProcessingStatusInProgress, createdBefore).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListExpired returns items whose retention window has passed. IN_PROGRESS
// items are skipped so a running execution never loses its record.
func (r *repository) ListExpired(ctx context.Context, now int64, limit int) ([]models.ProcessingItem, error) {
	var out []models.ProcessingItem
	err := r.Batch(ctx, limit).
		Where("expire_at <= ? AND processing_status <> ?", now, enums.ProcessingStatusInProgress).
		Order("expire_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Delete(ctx context.Context, ownerID string, itemID uuid.UUID) error {
	res := r.DB(ctx).
		Where("owner_id = ? AND item_id = ?", ownerID, itemID).
		Delete(&models.ProcessingItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
