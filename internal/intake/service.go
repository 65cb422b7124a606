package intake

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/internal/workflow"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/db/models"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type itemCreator interface {
	Create(ctx context.Context, item *models.ProcessingItem) error
}

type profileSelector interface {
	Select(sizeBytes int64) enums.WorkflowProfile
}

// UploadInput is one recording submitted by an authenticated owner.
type UploadInput struct {
	OwnerID     string `validate:"required"`
	Audio       []byte `validate:"required,min=1"`
	ContentType string `validate:"omitempty,oneof=audio/wav audio/x-wav audio/wave"`
}

// UploadResult is returned to the caller once the execution has been started.
type UploadResult struct {
	ID               uuid.UUID              `json:"id"`
	CreatedAt        int64                  `json:"createdAt"`
	ProcessingStatus enums.ProcessingStatus `json:"processingStatus"`
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

type ServiceParams struct {
	Items    itemCreator
	Blobs    blobs.Store
	Starter  workflow.Starter
	Profiles profileSelector
	Config   config.IntakeConfig
	Logger   *logger.Logger
}

type service struct {
	items    itemCreator
	blobs    blobs.Store
	starter  workflow.Starter
	profiles profileSelector
	cfg      config.IntakeConfig
	logg     *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Items == nil {
		return nil, errors.New("items repository is required")
	}
	if params.Blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if params.Starter == nil {
		return nil, errors.New("workflow starter is required")
	}
	if params.Profiles == nil {
		return nil, errors.New("profile selector is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Config.MaxAudioBytes <= 0 {
		return nil, errors.New("max audio bytes must be positive")
	}
	return &service{
		items:    params.Items,
		blobs:    params.Blobs,
		starter:  params.Starter,
		profiles: params.Profiles,
		cfg:      params.Config,
		logg:     params.Logger,
		validate: validator.New(),
		now:      time.Now,
	}, nil
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	input.ContentType = normalizeContentType(input.ContentType)

	if int64(len(input.Audio)) > s.cfg.MaxAudioBytes {
		return nil, pkgerrors.New(pkgerrors.CodeTooLarge, "audio exceeds maximum size").
			WithDetails(map[string]any{"max_bytes": s.cfg.MaxAudioBytes, "size_bytes": len(input.Audio)})
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	itemID := uuid.New()
	ctx = s.logg.WithItemID(s.logg.WithOwnerID(ctx, input.OwnerID), itemID.String())

	if err := s.blobs.Put(ctx, blobs.AudioKey(itemID), input.Audio, blobs.ContentTypeWAV); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store audio")
	}

	now := s.now().Unix()
	size := int64(len(input.Audio))
	item := &models.ProcessingItem{
		OwnerID:          input.OwnerID,
		ItemID:           itemID,
		CreatedAt:        now,
		ExpireAt:         now + int64(s.cfg.ItemTTL().Seconds()),
		UpdatedAt:        now,
		ExecutionRef:     uuid.NewString(),
		ProcessingStatus: enums.ProcessingStatusInProgress,
		AudioSizeBytes:   size,
		WorkflowProfile:  s.profiles.Select(size),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create processing item")
	}

	ctx = s.logg.WithExecutionRef(ctx, item.ExecutionRef)
	if err := s.starter.Start(ctx, workflow.StartRequest{
		ItemID:       itemID,
		OwnerID:      input.OwnerID,
		ExecutionRef: item.ExecutionRef,
		Profile:      item.WorkflowProfile,
	}); err != nil {
		// the record stays IN_PROGRESS; the stale sweep reconciles it
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to start processing")
	}

	s.logg.Info(s.logg.WithField(ctx, "profile", item.WorkflowProfile.String()), "upload accepted")
	return &UploadResult{
		ID:               itemID,
		CreatedAt:        item.CreatedAt,
		ProcessingStatus: item.ProcessingStatus,
	}, nil
}

func normalizeContentType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(value)
	}
	return strings.ToLower(mediaType)
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	for _, fe := range errs {
		switch fe.Field() {
		case "Audio":
			return pkgerrors.New(pkgerrors.CodeValidation, "no file uploaded")
		case "ContentType":
			return pkgerrors.New(pkgerrors.CodeUnsupported, "unsupported content type").
				WithDetails(map[string]any{"allowed": []string{"audio/wav", "audio/x-wav", "audio/wave"}})
		case "OwnerID":
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "owner is required")
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("validation failed: %s", errs.Error()))
}
