package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/speak2see-backend/internal/analytics/types"
	"github.com/angelmondragon/speak2see-backend/internal/analytics/writer"
	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/angelmondragon/speak2see-backend/pkg/metrics"
)

const finalStateTimedOut = "TIMED_OUT"

type claimer interface {
	ClaimExecution(ctx context.Context, executionRef, owner string, ttl time.Duration) (bool, error)
	ReleaseExecution(ctx context.Context, executionRef string) error
}

type analyticsSink interface {
	InsertExecution(ctx context.Context, row types.ExecutionRow) error
}

type orchestrator interface {
	Run(ctx context.Context, exec Execution) (ExecutionResult, error)
}

type RunnerParams struct {
	Orchestrator orchestrator
	Claims       claimer
	Profiles     Profiles
	ClaimGrace   time.Duration
	Metrics      *metrics.WorkflowMetrics
	Analytics    analyticsSink
	Logger       *logger.Logger
	WorkerID     string
}

// Runner hosts executions: it claims the execution ref, applies the profile
// ceiling and records the outcome.
type Runner struct {
	orch       orchestrator
	claims     claimer
	profiles   Profiles
	claimGrace time.Duration
	metrics    *metrics.WorkflowMetrics
	analytics  analyticsSink
	logg       *logger.Logger
	workerID   string
}

func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if params.Claims == nil {
		return nil, errors.New("claim store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Profiles.Standard.Timeout <= 0 || params.Profiles.Express.Timeout <= 0 {
		return nil, errors.New("profile timeouts must be positive")
	}
	return &Runner{
		orch:       params.Orchestrator,
		claims:     params.Claims,
		profiles:   params.Profiles,
		claimGrace: params.ClaimGrace,
		metrics:    params.Metrics,
		analytics:  params.Analytics,
		logg:       params.Logger,
		workerID:   params.WorkerID,
	}, nil
}

// Execute runs req at most once per execution ref. A duplicate delivery
// returns nil without running. Timeouts leave the record as-is.
func (r *Runner) Execute(ctx context.Context, req StartRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	profile := r.profiles.For(req.Profile)
	ctx = r.logg.WithFields(ctx, map[string]any{
		"item_id":       req.ItemID.String(),
		"owner_id":      req.OwnerID,
		"execution_ref": req.ExecutionRef,
		"profile":       profile.Name.String(),
	})

	claimed, err := r.claims.ClaimExecution(ctx, req.ExecutionRef, r.workerID, profile.Timeout+r.claimGrace)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClaimUnavailable, err)
	}
	if !claimed {
		r.metrics.IncClaimConflict()
		r.logg.Info(ctx, "execution already claimed, skipping")
		return nil
	}

	done := r.metrics.TrackInFlight()
	defer done()

	runCtx, cancel := context.WithTimeout(ctx, profile.Timeout)
	defer cancel()

	res, runErr := r.orch.Run(runCtx, Execution{
		OwnerID:      req.OwnerID,
		ItemID:       req.ItemID,
		ExecutionRef: req.ExecutionRef,
		PollInterval: profile.PollInterval,
	})

	finalState := res.FinalState.String()
	switch {
	case runErr == nil:
	case ctx.Err() != nil:
		// host shutdown: free the claim so a redelivery can run it
		if relErr := r.claims.ReleaseExecution(context.WithoutCancel(ctx), req.ExecutionRef); relErr != nil {
			r.logg.Error(ctx, "failed to release execution claim", relErr)
		}
		return ctx.Err()
	case errors.Is(runErr, context.DeadlineExceeded):
		finalState = finalStateTimedOut
		runErr = pkgerrors.Wrap(pkgerrors.CodeDependency, runErr, fmt.Sprintf("execution exceeded %s ceiling", profile.Timeout))
		r.logg.Error(r.logg.WithStage(ctx, res.FinalState.String()), "workflow execution timed out", runErr)
	default:
		r.logg.Error(ctx, "workflow execution failed", runErr)
	}

	r.record(ctx, req, profile, finalState, res, runErr)
	return runErr
}

func (r *Runner) record(ctx context.Context, req StartRequest, profile Profile, finalState string, res ExecutionResult, runErr error) {
	r.metrics.ObserveExecution(profile.Name.String(), finalState, res.Duration(), res.Polls, res.PromptFallback)
	for stage, d := range res.Stages {
		r.metrics.ObserveStage(stage, d)
	}

	if r.analytics == nil {
		return
	}
	cause := runErr
	if cause == nil {
		cause = res.Cause
	}
	row := types.ExecutionRow{
		ItemID:              req.ItemID.String(),
		OwnerID:             req.OwnerID,
		ExecutionRef:        req.ExecutionRef,
		Profile:             profile.Name.String(),
		FinalState:          finalState,
		PollCount:           int64(res.Polls),
		PromptFallback:      res.PromptFallback,
		TranscriptionMillis: res.Stages[StageTranscription].Milliseconds(),
		PromptMillis:        res.Stages[StagePrompt].Milliseconds(),
		ImageMillis:         res.Stages[StageImage].Milliseconds(),
		FinalizeMillis:      res.Stages[StageFinalize].Milliseconds(),
		TotalMillis:         res.Duration().Milliseconds(),
		Error:               writer.NullError(cause),
		StartedAt:           res.StartedAt,
		FinishedAt:          res.FinishedAt,
	}
	if err := r.analytics.InsertExecution(context.WithoutCancel(ctx), row); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "failed to record execution analytics")
	}
}

// IsTerminalOutcome reports whether a finished Execute left nothing to retry.
func IsTerminalOutcome(err error) bool {
	return err == nil || !errors.Is(err, ErrClaimUnavailable) && !errors.Is(err, context.Canceled)
}
