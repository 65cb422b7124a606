package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryRedis struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return true, nil
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := newMemoryRedis()
	first, err := NewRedisLock(store, "s2s:lock:cron", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "s2s:lock:cron", 0)
	ctx := context.Background()

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected first acquire, ok=%v err=%v", ok, err)
	}
	if store.ttl["s2s:lock:cron"] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", store.ttl["s2s:lock:cron"])
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("expected second acquire to fail while held")
	}

	// a non-owner release must leave the lock in place
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, held := store.data["s2s:lock:cron"]; !held {
		t.Fatal("non-owner release dropped the lock")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release")
	}
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := newMemoryRedis()
	lock, _ := NewRedisLock(store, "k", time.Minute)
	if _, err := lock.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	delete(store.data, "k")
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("expected expired lock release to be a no-op, got %v", err)
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error without client")
	}
	if _, err := NewRedisLock(newMemoryRedis(), "", 0); err == nil {
		t.Fatal("expected error without key")
	}
}

func TestRedisLockHolderNamesInstance(t *testing.T) {
	t.Setenv("SPEAK2SEE_WORKER_ID", "cron-a")
	store := newMemoryRedis()
	lock, err := NewRedisLock(store, "s2s:lock:cron", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	ctx := context.Background()

	if holder, err := lock.Holder(ctx); err != nil || holder != "" {
		t.Fatalf("expected free lock, holder=%q err=%v", holder, err)
	}
	if _, err := lock.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if holder, err := lock.Holder(ctx); err != nil || holder != "cron-a" {
		t.Fatalf("expected holder cron-a, got %q err=%v", holder, err)
	}
}
