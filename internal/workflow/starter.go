package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/google/uuid"
)

// StartRequest is the message that starts one execution.
type StartRequest struct {
	ItemID       uuid.UUID             `json:"itemId"`
	OwnerID      string                `json:"ownerId"`
	ExecutionRef string                `json:"executionRef"`
	Profile      enums.WorkflowProfile `json:"profile"`
}

func (r StartRequest) Validate() error {
	switch {
	case r.ItemID == uuid.Nil:
		return fmt.Errorf("%w: itemId is required", ErrInvalidStartRequest)
	case strings.TrimSpace(r.OwnerID) == "":
		return fmt.Errorf("%w: ownerId is required", ErrInvalidStartRequest)
	case strings.TrimSpace(r.ExecutionRef) == "":
		return fmt.Errorf("%w: executionRef is required", ErrInvalidStartRequest)
	case r.Profile != "" && !r.Profile.IsValid():
		return fmt.Errorf("%w: unknown profile %q", ErrInvalidStartRequest, r.Profile)
	}
	return nil
}

// DecodeStartRequest parses and validates a start message body.
func DecodeStartRequest(data []byte) (StartRequest, error) {
	var req StartRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return StartRequest{}, fmt.Errorf("%w: %v", ErrInvalidStartRequest, err)
	}
	if err := req.Validate(); err != nil {
		return StartRequest{}, err
	}
	return req, nil
}

// Starter begins an execution for a freshly created item.
type Starter interface {
	Start(ctx context.Context, req StartRequest) error
}

type publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// PubSubStarter publishes start messages for the worker fleet.
type PubSubStarter struct {
	pub  publisher
	logg *logger.Logger
}

func NewPubSubStarter(pub publisher, logg *logger.Logger) (*PubSubStarter, error) {
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &PubSubStarter{pub: pub, logg: logg}, nil
}

func (s *PubSubStarter) Start(ctx context.Context, req StartRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode start request: %w", err)
	}
	id, err := s.pub.Publish(ctx, data, map[string]string{
		"item_id":       req.ItemID.String(),
		"execution_ref": req.ExecutionRef,
		"profile":       req.Profile.String(),
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "message_id", id), "workflow start published")
	return nil
}

type executor interface {
	Execute(ctx context.Context, req StartRequest) error
}

// InlineStarter runs executions on goroutines inside the current process.
// Executions outlive the request that started them and stop with base.
type InlineStarter struct {
	base   context.Context
	runner executor
	logg   *logger.Logger
	wg     sync.WaitGroup
}

func NewInlineStarter(base context.Context, runner executor, logg *logger.Logger) (*InlineStarter, error) {
	if base == nil {
		return nil, errors.New("base context is required")
	}
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &InlineStarter{base: base, runner: runner, logg: logg}, nil
}

func (s *InlineStarter) Start(_ context.Context, req StartRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.base.Err(); err != nil {
		return fmt.Errorf("inline starter stopped: %w", err)
	}
	execCtx := s.base

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.runner.Execute(execCtx, req); err != nil {
			s.logg.Error(s.logg.WithExecutionRef(execCtx, req.ExecutionRef), "inline execution failed", err)
		}
	}()
	return nil
}

// Wait blocks until every started execution has returned.
func (s *InlineStarter) Wait() {
	s.wg.Wait()
}
