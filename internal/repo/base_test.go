package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type row struct {
	ID int `gorm:"primaryKey"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if err := conn.Create(&row{ID: i}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return conn
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseBatchCapsRows(t *testing.T) {
	base := NewBase(newTestDB(t))

	var capped []row
	if err := base.Batch(context.Background(), 2).Order("id").Find(&capped).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(capped))
	}

	var all []row
	if err := base.Batch(context.Background(), 0).Find(&all).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected unbounded batch to return 5 rows, got %d", len(all))
	}
}

func TestBaseWithTxKeepsClock(t *testing.T) {
	db := newTestDB(t)
	fixed := time.Unix(1_700_000_000, 0)
	base := NewBase(db).WithClock(func() time.Time { return fixed })

	if got := base.WithTx(nil); got.db != db {
		t.Fatalf("expected nil tx to keep original connection")
	}

	tx := db.Session(&gorm.Session{NewDB: true})
	bound := base.WithTx(tx)
	if bound.db != tx {
		t.Fatalf("expected tx connection to be bound")
	}
	if bound.Now() != fixed.Unix() {
		t.Fatalf("expected clock to survive WithTx, got %d", bound.Now())
	}
}

func TestBaseNowDefaultsToWallClock(t *testing.T) {
	before := time.Now().Unix()
	got := Base{}.Now()
	if got < before {
		t.Fatalf("expected wall clock time, got %d < %d", got, before)
	}
}
