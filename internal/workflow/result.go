package workflow

import (
	"time"

	"github.com/angelmondragon/speak2see-backend/pkg/enums"
)

const (
	StageTranscription = "transcription"
	StagePrompt        = "prompt"
	StageImage         = "image"
	StageFinalize      = "finalize"
)

// ExecutionResult summarizes one orchestrator run.
type ExecutionResult struct {
	FinalState     enums.WorkflowState
	Polls          int
	PromptFallback bool
	JobID          string
	Stages         map[string]time.Duration
	StartedAt      time.Time
	FinishedAt     time.Time
	// Cause is the adapter error that led to a failure state, if any.
	Cause error
}

func (r ExecutionResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
