package query

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/internal/items"
	"github.com/angelmondragon/speak2see-backend/pkg/db/models"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/google/uuid"
)

type stubReader struct {
	items   map[uuid.UUID]*models.ProcessingItem
	listErr error
}

func (s *stubReader) Get(_ context.Context, ownerID string, itemID uuid.UUID) (*models.ProcessingItem, error) {
	item, ok := s.items[itemID]
	if !ok || item.OwnerID != ownerID {
		return nil, items.ErrNotFound
	}
	return item, nil
}

func (s *stubReader) List(_ context.Context, ownerID string) ([]models.ProcessingItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.ProcessingItem
	for _, it := range s.items {
		if it.OwnerID == ownerID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, status enums.ProcessingStatus) (Service, *models.ProcessingItem) {
	t.Helper()
	id := uuid.New()
	item := &models.ProcessingItem{OwnerID: "owner-1", ItemID: id, CreatedAt: 1_700_000_000, ProcessingStatus: status}
	if status.HasTranscript() {
		item.Transcription = strPtr("a dog on a beach")
		item.Prompt = strPtr("golden retriever, beach, sunset")
	}
	store := blobs.NewMemoryStore()
	_ = store.Put(context.Background(), blobs.AudioKey(id), []byte("RIFF"), blobs.ContentTypeWAV)
	if status == enums.ProcessingStatusFinished {
		ref := blobs.ImageKey(id)
		item.ResultImageRef = &ref
		_ = store.Put(context.Background(), ref, []byte("PNG"), blobs.ContentTypePNG)
	}
	svc, err := NewService(&stubReader{items: map[uuid.UUID]*models.ProcessingItem{id: item}}, store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, item
}

func keysOf(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestGetShapesByStatus(t *testing.T) {
	cases := []struct {
		status enums.ProcessingStatus
		keys   []string
	}{
		{enums.ProcessingStatusInProgress, []string{"audio", "processingStatus"}},
		{enums.ProcessingStatusTranscriptionFailed, []string{"audio", "processingStatus"}},
		{enums.ProcessingStatusImageFailed, []string{"audio", "processingStatus", "transcription", "prompt"}},
		{enums.ProcessingStatusFinished, []string{"audio", "processingStatus", "transcription", "prompt", "image"}},
	}
	for _, tc := range cases {
		svc, item := seed(t, tc.status)
		detail, err := svc.Get(context.Background(), "owner-1", item.ItemID.String())
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.status, err)
		}
		body := keysOf(t, detail)
		if len(body) != len(tc.keys) {
			t.Fatalf("%s: expected keys %v, got %v", tc.status, tc.keys, body)
		}
		for _, k := range tc.keys {
			if _, ok := body[k]; !ok {
				t.Fatalf("%s: missing key %s in %v", tc.status, k, body)
			}
		}
		if body["audio"] != base64.StdEncoding.EncodeToString([]byte("RIFF")) {
			t.Fatalf("%s: audio not base64 encoded", tc.status)
		}
		if body["processingStatus"] != tc.status.String() {
			t.Fatalf("%s: unexpected status %v", tc.status, body["processingStatus"])
		}
	}
}

func TestGetErrors(t *testing.T) {
	svc, item := seed(t, enums.ProcessingStatusFinished)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "owner-1", " "); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Get(ctx, "owner-1", "not-a-uuid"); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Get(ctx, "owner-2", item.ItemID.String()); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for another owner, got %v", err)
	}

	emptyStore, err := NewService(&stubReader{items: map[uuid.UUID]*models.ProcessingItem{item.ItemID: item}}, blobs.NewMemoryStore())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := emptyStore.Get(ctx, "owner-1", item.ItemID.String()); pkgerrors.CodeOf(err) != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error for missing blob, got %v", err)
	}
}

func TestListAll(t *testing.T) {
	svc, item := seed(t, enums.ProcessingStatusInProgress)
	list, err := svc.ListAll(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != item.ItemID || list[0].CreatedAt != 1_700_000_000 {
		t.Fatalf("unexpected list %+v", list)
	}

	empty, err := svc.ListAll(context.Background(), "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v err=%v", empty, err)
	}

	broken, _ := NewService(&stubReader{listErr: errors.New("db down")}, blobs.NewMemoryStore())
	if _, err := broken.ListAll(context.Background(), "owner-1"); pkgerrors.CodeOf(err) != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
