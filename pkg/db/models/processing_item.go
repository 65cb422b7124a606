package models

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/speak2see-backend/pkg/enums"
)

// ProcessingItem is the persisted status record for one uploaded recording.
// Timestamps are epoch seconds.
type ProcessingItem struct {
	OwnerID          string                 `gorm:"column:owner_id;primaryKey"`
	ItemID           uuid.UUID              `gorm:"column:item_id;type:uuid;primaryKey"`
	CreatedAt        int64                  `gorm:"column:created_at;not null;autoCreateTime:false"`
	ExpireAt         int64                  `gorm:"column:expire_at;not null"`
	UpdatedAt        int64                  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	ExecutionRef     string                 `gorm:"column:execution_ref;not null"`
	ProcessingStatus enums.ProcessingStatus `gorm:"column:processing_status;not null"`
	Transcription    *string                `gorm:"column:transcription"`
	Prompt           *string                `gorm:"column:prompt"`
	ResultImageRef   *string                `gorm:"column:result_image_ref"`
	AudioSizeBytes   int64                  `gorm:"column:audio_size_bytes;not null"`
	WorkflowProfile  enums.WorkflowProfile  `gorm:"column:workflow_profile;not null"`
}

func (ProcessingItem) TableName() string {
	return "processing_items"
}
