package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubConsumer struct {
	err     error
	started chan struct{}
}

func (s *stubConsumer) Run(ctx context.Context) error {
	if s.started != nil {
		close(s.started)
	}
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func newTestService(t *testing.T, consumer runner, deps map[string]pinger) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:       &config.Config{},
		Logger:       logger.Nop(),
		Consumer:     consumer,
		Dependencies: deps,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceValidatesParams(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop(), Consumer: &stubConsumer{}}); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := NewService(ServiceParams{Config: &config.Config{}, Consumer: &stubConsumer{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewService(ServiceParams{Config: &config.Config{}, Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without consumer")
	}
}

func TestRunFailsWhenDependencyNotReady(t *testing.T) {
	consumer := &stubConsumer{started: make(chan struct{})}
	svc := newTestService(t, consumer, map[string]pinger{
		"redis": stubPinger{err: errors.New("connection refused")},
	})

	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected readiness error")
	}
	select {
	case <-consumer.started:
		t.Fatal("consumer should not start when a dependency is down")
	default:
	}
}

func TestRunReturnsConsumerError(t *testing.T) {
	boom := errors.New("subscription deleted")
	svc := newTestService(t, &stubConsumer{err: boom}, map[string]pinger{
		"database": stubPinger{},
		"skipped":  nil,
	})

	if err := svc.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	consumer := &stubConsumer{started: make(chan struct{})}
	svc := newTestService(t, consumer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	<-consumer.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
