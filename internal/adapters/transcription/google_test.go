package transcription

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	"github.com/angelmondragon/speak2see-backend/pkg/speech"
	"github.com/google/uuid"
)

type stubRecognizer struct {
	startURI  string
	startLang string
	startErr  error
	ops       []speech.Operation
	opErr     error
	calls     int
}

func (s *stubRecognizer) StartRecognition(_ context.Context, uri, lang string) (string, error) {
	s.startURI, s.startLang = uri, lang
	if s.startErr != nil {
		return "", s.startErr
	}
	return "operations/42", nil
}

func (s *stubRecognizer) Operation(_ context.Context, name string) (speech.Operation, error) {
	if s.opErr != nil {
		return speech.Operation{}, s.opErr
	}
	op := s.ops[min(s.calls, len(s.ops)-1)]
	s.calls++
	return op, nil
}

func TestGoogleSubmitUsesAudioKey(t *testing.T) {
	rec := &stubRecognizer{}
	store := blobs.NewMemoryStore()
	adapter := NewGoogle(rec, store, 0)
	id := uuid.New()

	job, err := adapter.Submit(context.Background(), SubmitRequest{ItemID: id, LanguageHint: "en-US"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID != "operations/42" || job.ItemID != id {
		t.Fatalf("unexpected handle %+v", job)
	}
	if rec.startURI != store.URI(blobs.AudioKey(id)) || rec.startLang != "en-US" {
		t.Fatalf("unexpected start args uri=%s lang=%s", rec.startURI, rec.startLang)
	}

	rec.startErr = errors.New("quota")
	if _, err := adapter.Submit(context.Background(), SubmitRequest{ItemID: id}); err == nil {
		t.Fatal("expected submit error")
	}
}

func TestGooglePollLifecycle(t *testing.T) {
	id := uuid.New()
	rec := &stubRecognizer{ops: []speech.Operation{
		{Name: "op", Done: false},
		{Name: "op", Done: true, Response: []byte(`{"results":[{"alternatives":[{"transcript":"a lighthouse at dusk"}]}]}`)},
	}}
	store := blobs.NewMemoryStore()
	adapter := NewGoogle(rec, store, 0)
	ctx := context.Background()
	job := JobHandle{ID: "op", ItemID: id}

	status, err := adapter.Poll(ctx, job)
	if err != nil || status != enums.TranscriptionJobRunning {
		t.Fatalf("expected RUNNING, got %s err=%v", status, err)
	}
	if _, err := adapter.Transcript(ctx, id); !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult before completion, got %v", err)
	}

	status, err = adapter.Poll(ctx, job)
	if err != nil || status != enums.TranscriptionJobCompleted {
		t.Fatalf("expected COMPLETED, got %s err=%v", status, err)
	}
	if ct := store.ContentType(blobs.TranscriptKey(id)); ct != blobs.ContentTypeJSON {
		t.Fatalf("expected transcript json stored, content type %q", ct)
	}

	text, err := adapter.Transcript(ctx, id)
	if err != nil || text != "a lighthouse at dusk" {
		t.Fatalf("unexpected transcript %q err=%v", text, err)
	}
}

func TestGooglePollFailureAndEmptyTranscript(t *testing.T) {
	id := uuid.New()
	ctx := context.Background()

	failing := NewGoogle(&stubRecognizer{ops: []speech.Operation{{Done: true, ErrorCode: 3, ErrorMessage: "bad encoding"}}}, blobs.NewMemoryStore(), 0)
	status, err := failing.Poll(ctx, JobHandle{ID: "op", ItemID: id})
	if err != nil || status != enums.TranscriptionJobFailed {
		t.Fatalf("expected FAILED, got %s err=%v", status, err)
	}

	transport := NewGoogle(&stubRecognizer{opErr: errors.New("unavailable")}, blobs.NewMemoryStore(), 0)
	if _, err := transport.Poll(ctx, JobHandle{ID: "op", ItemID: id}); err == nil {
		t.Fatal("expected transport error")
	}

	store := blobs.NewMemoryStore()
	silent := NewGoogle(&stubRecognizer{ops: []speech.Operation{{Done: true}}}, store, 0)
	if status, err := silent.Poll(ctx, JobHandle{ID: "op", ItemID: id}); err != nil || status != enums.TranscriptionJobCompleted {
		t.Fatalf("expected COMPLETED, got %s err=%v", status, err)
	}
	if _, err := silent.Transcript(ctx, id); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
}
