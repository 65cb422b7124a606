package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
)

const heartbeatInterval = time.Minute

type pinger interface {
	Ping(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Consumer runner
	// Dependencies are pinged once before consuming starts.
	Dependencies map[string]pinger
}

type Service struct {
	cfg      *config.Config
	logg     *logger.Logger
	consumer runner
	deps     map[string]pinger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("workflow consumer is required")
	}

	return &Service{
		cfg:      params.Config,
		logg:     params.Logger,
		consumer: params.Consumer,
		deps:     params.Dependencies,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.deps {
		if dep == nil {
			continue
		}
		if err := pingDependency(ctx, s.logg, name, dep.Ping); err != nil {
			return err
		}
	}
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, ping func(context.Context) error) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ping(pingCtx); err != nil {
		logg.Error(logg.WithField(ctx, "dependency", name), "dependency not ready", err)
		return fmt.Errorf("%s not ready: %w", name, err)
	}
	return nil
}

// Run blocks until ctx is canceled or the consumer stops.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	s.logg.Info(ctx, "worker dependencies ready")

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.consumer.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "consumer stopped unexpectedly", err)
				return err
			}
			return err
		case <-ticker.C:
			s.logg.Debug(ctx, "worker heartbeat")
		}
	}
}
