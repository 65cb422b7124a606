package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	"github.com/angelmondragon/speak2see-backend/pkg/speech"
	"github.com/google/uuid"
)

type recognizer interface {
	StartRecognition(ctx context.Context, uri, languageCode string) (string, error)
	Operation(ctx context.Context, name string) (speech.Operation, error)
}

// Google submits jobs to Speech-to-Text and keeps the finished result next to the audio.
type Google struct {
	speech  recognizer
	store   blobs.Store
	timeout time.Duration
}

func NewGoogle(client recognizer, store blobs.Store, requestTimeout time.Duration) *Google {
	return &Google{speech: client, store: store, timeout: requestTimeout}
}

func (g *Google) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Google) Submit(ctx context.Context, req SubmitRequest) (JobHandle, error) {
	if req.ItemID == uuid.Nil {
		return JobHandle{}, errors.New("item id is required")
	}
	ref := req.AudioRef
	if ref == "" {
		ref = blobs.AudioKey(req.ItemID)
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	name, err := g.speech.StartRecognition(ctx, g.store.URI(ref), req.LanguageHint)
	if err != nil {
		return JobHandle{}, err
	}
	return JobHandle{ID: name, ItemID: req.ItemID}, nil
}

// Poll maps the operation state. On completion the provider payload is written
// to the item's transcript key before COMPLETED is reported.
func (g *Google) Poll(ctx context.Context, job JobHandle) (enums.TranscriptionJobStatus, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	op, err := g.speech.Operation(ctx, job.ID)
	if err != nil {
		return "", err
	}
	switch {
	case !op.Done:
		return enums.TranscriptionJobRunning, nil
	case op.Failed():
		return enums.TranscriptionJobFailed, nil
	}

	payload := op.Response
	if len(payload) == 0 {
		payload = []byte(`{"results":[]}`)
	}
	if err := g.store.Put(ctx, blobs.TranscriptKey(job.ItemID), payload, blobs.ContentTypeJSON); err != nil {
		return "", fmt.Errorf("store transcript result: %w", err)
	}
	return enums.TranscriptionJobCompleted, nil
}

func (g *Google) Transcript(ctx context.Context, itemID uuid.UUID) (string, error) {
	payload, err := g.store.Get(ctx, blobs.TranscriptKey(itemID))
	if err != nil {
		if errors.Is(err, blobs.ErrNotFound) {
			return "", ErrNoResult
		}
		return "", err
	}
	text, err := speech.JoinTranscript(payload)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
