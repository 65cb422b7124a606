package items

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/db/models"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	"github.com/angelmondragon/speak2see-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupItemsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Up(context.Background(), sqlDB, config.DriverSQLite))
	return conn
}

func newItem(owner string, createdAt int64) *models.ProcessingItem {
	return &models.ProcessingItem{
		OwnerID:          owner,
		ItemID:           uuid.New(),
		CreatedAt:        createdAt,
		ExpireAt:         createdAt + 30*86400,
		ExecutionRef:     uuid.NewString(),
		ProcessingStatus: enums.ProcessingStatusInProgress,
		AudioSizeBytes:   2048,
		WorkflowProfile:  enums.WorkflowProfileExpress,
	}
}

func newTestRepo(conn *gorm.DB, now time.Time) *repository {
	r := NewRepository(conn).(*repository)
	r.Base = r.Base.WithClock(func() time.Time { return now })
	return r
}

func TestRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(setupItemsTestDB(t), time.Unix(1_700_000_100, 0))

	item := newItem("owner-1", 1_700_000_000)
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.Get(ctx, "owner-1", item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, enums.ProcessingStatusInProgress, got.ProcessingStatus)
	assert.Equal(t, item.ExecutionRef, got.ExecutionRef)
	assert.Equal(t, int64(1_700_000_000), got.UpdatedAt)
	assert.Nil(t, got.Transcription)
	assert.Nil(t, got.Prompt)
	assert.Nil(t, got.ResultImageRef)

	_, err = repo.Get(ctx, "owner-2", item.ItemID)
	assert.ErrorIs(t, err, ErrNotFound)

	dup := *item
	dup.ExecutionRef = uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrAlreadyExists)
}

func TestRepositoryUpdateIsTerminalOnly(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(setupItemsTestDB(t), time.Unix(1_700_000_500, 0))

	item := newItem("owner-1", 1_700_000_000)
	require.NoError(t, repo.Create(ctx, item))

	require.NoError(t, repo.Update(ctx, "owner-1", item.ItemID, Finished("a cat", "a cat, oil painting", item.ItemID.String()+"/image")))

	got, err := repo.Get(ctx, "owner-1", item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, enums.ProcessingStatusFinished, got.ProcessingStatus)
	require.NotNil(t, got.Transcription)
	assert.Equal(t, "a cat", *got.Transcription)
	require.NotNil(t, got.ResultImageRef)
	assert.Equal(t, int64(1_700_000_500), got.UpdatedAt)

	// same terminal write again is a no-op
	require.NoError(t, repo.Update(ctx, "owner-1", item.ItemID, Finished("a cat", "a cat, oil painting", item.ItemID.String()+"/image")))

	err = repo.Update(ctx, "owner-1", item.ItemID, TranscriptionFailed())
	assert.ErrorIs(t, err, ErrTerminalState)

	got, err = repo.Get(ctx, "owner-1", item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, enums.ProcessingStatusFinished, got.ProcessingStatus)
	assert.NotNil(t, got.Prompt)
}

func TestRepositoryUpdateMissingAndInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(setupItemsTestDB(t), time.Unix(1_700_000_500, 0))

	err := repo.Update(ctx, "owner-1", uuid.New(), TranscriptionFailed())
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Update(ctx, "owner-1", uuid.New(), Mutation{Status: enums.ProcessingStatusInProgress})
	assert.ErrorIs(t, err, ErrInvalidMutation)
}

func TestRepositoryImageFailedKeepsTranscript(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(setupItemsTestDB(t), time.Unix(1_700_000_500, 0))

	item := newItem("owner-1", 1_700_000_000)
	require.NoError(t, repo.Create(ctx, item))
	require.NoError(t, repo.Update(ctx, "owner-1", item.ItemID, ImageFailed("hello", "hello")))

	got, err := repo.Get(ctx, "owner-1", item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, enums.ProcessingStatusImageFailed, got.ProcessingStatus)
	require.NotNil(t, got.Transcription)
	require.NotNil(t, got.Prompt)
	assert.Nil(t, got.ResultImageRef)
}

func TestRepositoryListQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(setupItemsTestDB(t), time.Unix(1_700_010_000, 0))

	old := newItem("owner-1", 1_700_000_000)
	mid := newItem("owner-1", 1_700_000_100)
	other := newItem("owner-2", 1_700_000_050)
	fresh := newItem("owner-1", 1_700_009_990)
	for _, it := range []*models.ProcessingItem{old, mid, other, fresh} {
		require.NoError(t, repo.Create(ctx, it))
	}

	listed, err := repo.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, fresh.ItemID, listed[0].ItemID)
	assert.Equal(t, old.ItemID, listed[2].ItemID)

	stale, err := repo.ListStaleInProgress(ctx, 1_700_000_200, 2)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, old.ItemID, stale[0].ItemID)
	assert.Equal(t, other.ItemID, stale[1].ItemID)

	require.NoError(t, repo.Update(ctx, "owner-1", mid.ItemID, TranscriptionFailed()))
	expired, err := repo.ListExpired(ctx, mid.ExpireAt, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1, "in-progress items must not be purged")
	assert.Equal(t, mid.ItemID, expired[0].ItemID)

	require.NoError(t, repo.Delete(ctx, "owner-1", mid.ItemID))
	assert.ErrorIs(t, repo.Delete(ctx, "owner-1", mid.ItemID), ErrNotFound)
}

func TestMutationValidate(t *testing.T) {
	text := "t"
	cases := []struct {
		name    string
		m       Mutation
		wantErr bool
	}{
		{"transcription failed bare", TranscriptionFailed(), false},
		{"transcription failed with text", Mutation{Status: enums.ProcessingStatusTranscriptionFailed, Transcript: &text, Prompt: &text}, true},
		{"image failed with text", ImageFailed("t", "p"), false},
		{"image failed without text", Mutation{Status: enums.ProcessingStatusImageFailed}, true},
		{"image failed with image", Mutation{Status: enums.ProcessingStatusImageFailed, Transcript: &text, Prompt: &text, ResultImageRef: &text}, true},
		{"finished complete", Finished("t", "p", "ref"), false},
		{"finished without image", Mutation{Status: enums.ProcessingStatusFinished, Transcript: &text, Prompt: &text}, true},
		{"transcript without prompt", Mutation{Status: enums.ProcessingStatusImageFailed, Transcript: &text}, true},
		{"in progress", Mutation{Status: enums.ProcessingStatusInProgress}, true},
		{"unknown", Mutation{Status: "DONE"}, true},
	}
	for _, tc := range cases {
		err := tc.m.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
