package workflow

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/speak2see-backend/pkg/enums"
)

var (
	ErrInvalidStartRequest = errors.New("invalid workflow start request")
	// ErrClaimUnavailable means the execution claim could not be checked. The
	// start message should be redelivered.
	ErrClaimUnavailable = errors.New("execution claim unavailable")
)

// AdapterError is a failed call to an external capability. The orchestrator
// recovers from it by moving to the matching failure state.
type AdapterError struct {
	Stage enums.WorkflowState
	Err   error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failed terminal status write. It ends the execution.
type PersistenceError struct {
	State enums.WorkflowState
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.State, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
