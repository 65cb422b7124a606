package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Base carries the connection and clock shared by repositories.
type Base struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db, now: time.Now}
}

// DB returns the connection bound to ctx. A nil ctx returns the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Batch is DB capped at limit rows. limit <= 0 leaves the query unbounded.
func (b Base) Batch(ctx context.Context, limit int) *gorm.DB {
	q := b.DB(ctx)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

// WithTx returns a Base bound to tx, or the receiver when tx is nil.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx, now: b.now}
}

// WithClock swaps the time source used for updated_at stamps.
func (b Base) WithClock(now func() time.Time) Base {
	if now == nil {
		return b
	}
	return Base{db: b.db, now: now}
}

// Now reports the current time in epoch seconds.
func (b Base) Now() int64 {
	if b.now == nil {
		return time.Now().Unix()
	}
	return b.now().Unix()
}
