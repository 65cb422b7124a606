package transcription

import (
	"context"
	"errors"

	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	"github.com/google/uuid"
)

var (
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrNoResult        = errors.New("transcription result not available")
)

type SubmitRequest struct {
	ItemID       uuid.UUID
	AudioRef     string
	LanguageHint string
}

// JobHandle identifies a submitted remote job.
type JobHandle struct {
	ID     string
	ItemID uuid.UUID
}

// Adapter drives a long-running remote speech-to-text job.
type Adapter interface {
	Submit(ctx context.Context, req SubmitRequest) (JobHandle, error)
	Poll(ctx context.Context, job JobHandle) (enums.TranscriptionJobStatus, error)
	Transcript(ctx context.Context, itemID uuid.UUID) (string, error)
}
