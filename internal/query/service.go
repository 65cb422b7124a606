package query

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/internal/items"
	"github.com/angelmondragon/speak2see-backend/pkg/db/models"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/google/uuid"
)

type itemReader interface {
	Get(ctx context.Context, ownerID string, itemID uuid.UUID) (*models.ProcessingItem, error)
	List(ctx context.Context, ownerID string) ([]models.ProcessingItem, error)
}

// ItemDetail is the per-item view. Optional fields are omitted, not null.
type ItemDetail struct {
	Audio            string                 `json:"audio"`
	Image            *string                `json:"image,omitempty"`
	Transcription    *string                `json:"transcription,omitempty"`
	Prompt           *string                `json:"prompt,omitempty"`
	ProcessingStatus enums.ProcessingStatus `json:"processingStatus"`
}

type ItemSummary struct {
	ID               uuid.UUID              `json:"id"`
	CreatedAt        int64                  `json:"createdAt"`
	ProcessingStatus enums.ProcessingStatus `json:"processingStatus"`
}

type Service interface {
	Get(ctx context.Context, ownerID, itemID string) (*ItemDetail, error)
	ListAll(ctx context.Context, ownerID string) ([]ItemSummary, error)
}

type service struct {
	items itemReader
	blobs blobs.Store
}

func NewService(reader itemReader, store blobs.Store) (Service, error) {
	if reader == nil {
		return nil, errors.New("items repository is required")
	}
	if store == nil {
		return nil, errors.New("blob store is required")
	}
	return &service{items: reader, blobs: store}, nil
}

func (s *service) Get(ctx context.Context, ownerID, itemID string) (*ItemDetail, error) {
	rawID := strings.TrimSpace(itemID)
	if rawID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "processing id is required")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "processing id must be a uuid")
	}

	item, err := s.items.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, items.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no upload found for the given user and processing id")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load processing item")
	}

	audio, err := s.encodedBlob(ctx, blobs.AudioKey(id))
	if err != nil {
		return nil, err
	}
	detail := &ItemDetail{Audio: audio, ProcessingStatus: item.ProcessingStatus}
	if !item.ProcessingStatus.HasTranscript() {
		return detail, nil
	}

	if item.Transcription == nil || item.Prompt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "processed item is missing transcription or prompt")
	}
	detail.Transcription = item.Transcription
	detail.Prompt = item.Prompt

	if item.ProcessingStatus == enums.ProcessingStatusFinished {
		key := blobs.ImageKey(id)
		if item.ResultImageRef != nil && *item.ResultImageRef != "" {
			key = *item.ResultImageRef
		}
		image, err := s.encodedBlob(ctx, key)
		if err != nil {
			return nil, err
		}
		detail.Image = &image
	}
	return detail, nil
}

func (s *service) ListAll(ctx context.Context, ownerID string) ([]ItemSummary, error) {
	rows, err := s.items.List(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list processing items")
	}
	out := make([]ItemSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, ItemSummary{
			ID:               row.ItemID,
			CreatedAt:        row.CreatedAt,
			ProcessingStatus: row.ProcessingStatus,
		})
	}
	return out, nil
}

func (s *service) encodedBlob(ctx context.Context, key string) (string, error) {
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "missing stored file for existing item")
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
