package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/speak2see-backend/internal/adapters/image"
	"github.com/angelmondragon/speak2see-backend/internal/adapters/prompt"
	"github.com/angelmondragon/speak2see-backend/internal/adapters/transcription"
	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/internal/items"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"github.com/google/uuid"
)

type statusWriter interface {
	Update(ctx context.Context, ownerID string, itemID uuid.UUID, m items.Mutation) error
}

// Execution identifies the item an orchestrator run drives.
type Execution struct {
	OwnerID      string
	ItemID       uuid.UUID
	ExecutionRef string
	PollInterval time.Duration
}

type OrchestratorParams struct {
	Transcriber    transcription.Adapter
	Prompter       prompt.Generator
	Imager         image.Generator
	Blobs          blobs.Store
	Items          statusWriter
	Logger         *logger.Logger
	PromptMaxChars int
	LanguageHint   string
}

// Orchestrator drives one item through transcription, prompt, image and finalize.
type Orchestrator struct {
	transcriber    transcription.Adapter
	prompter       prompt.Generator
	imager         image.Generator
	blobs          blobs.Store
	items          statusWriter
	logg           *logger.Logger
	promptMaxChars int
	languageHint   string

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(params OrchestratorParams) (*Orchestrator, error) {
	if params.Transcriber == nil {
		return nil, errors.New("transcription adapter is required")
	}
	if params.Prompter == nil {
		return nil, errors.New("prompt generator is required")
	}
	if params.Imager == nil {
		return nil, errors.New("image generator is required")
	}
	if params.Blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if params.Items == nil {
		return nil, errors.New("items repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.PromptMaxChars <= 0 {
		return nil, errors.New("prompt max chars must be positive")
	}
	return &Orchestrator{
		transcriber:    params.Transcriber,
		prompter:       params.Prompter,
		imager:         params.Imager,
		blobs:          params.Blobs,
		items:          params.Items,
		logg:           params.Logger,
		promptMaxChars: params.PromptMaxChars,
		languageHint:   params.LanguageHint,
		now:            time.Now,
		wait:           sleep,
	}, nil
}

// execContext carries values between states.
type execContext struct {
	Execution
	job        transcription.JobHandle
	transcript string
	prompt     string
	imageRef   image.Ref
	result     ExecutionResult
}

type stateFunc func(ctx context.Context, ec *execContext) (enums.WorkflowState, error)

// Run executes the state machine until a terminal state, then performs the
// single terminal status write. A cancelled ctx stops the run without writing.
func (o *Orchestrator) Run(ctx context.Context, exec Execution) (ExecutionResult, error) {
	ec := &execContext{
		Execution: exec,
		result: ExecutionResult{
			Stages:    make(map[string]time.Duration, 4),
			StartedAt: o.now(),
		},
	}
	ctx = o.logg.WithItemID(ctx, exec.ItemID.String())
	ctx = o.logg.WithExecutionRef(ctx, exec.ExecutionRef)

	steps := map[enums.WorkflowState]stateFunc{
		enums.WorkflowStateStart:               o.start,
		enums.WorkflowStateSubmitTranscription: o.submitTranscription,
		enums.WorkflowStateWait:                o.waitForTranscription,
		enums.WorkflowStatePollTranscription:   o.pollTranscription,
		enums.WorkflowStateTranscriptionDone:   o.transcriptionDone,
		enums.WorkflowStateGeneratePrompt:      o.generatePrompt,
		enums.WorkflowStateGenerateImage:       o.generateImage,
		enums.WorkflowStateFinalize:            o.finalize,
	}

	state := enums.WorkflowStateStart
	for !state.IsTerminal() {
		step, ok := steps[state]
		if !ok {
			return o.finish(ec, state), fmt.Errorf("no handler for state %s", state)
		}
		next, err := step(ctx, ec)
		if err != nil {
			return o.finish(ec, state), err
		}
		o.logg.Debug(o.logg.WithStage(ctx, next.String()), "workflow transition")
		state = next
	}

	if err := o.persist(ctx, ec, state); err != nil {
		return o.finish(ec, state), err
	}
	o.logg.Info(o.logg.WithStage(ctx, state.String()), "workflow finished")
	return o.finish(ec, state), nil
}

func (o *Orchestrator) finish(ec *execContext, state enums.WorkflowState) ExecutionResult {
	ec.result.FinalState = state
	ec.result.JobID = ec.job.ID
	ec.result.FinishedAt = o.now()
	return ec.result
}

func (o *Orchestrator) start(_ context.Context, _ *execContext) (enums.WorkflowState, error) {
	return enums.WorkflowStateSubmitTranscription, nil
}

func (o *Orchestrator) submitTranscription(ctx context.Context, ec *execContext) (enums.WorkflowState, error) {
	defer o.track(ec, StageTranscription, o.now())

	job, err := o.transcriber.Submit(ctx, transcription.SubmitRequest{
		ItemID:       ec.ItemID,
		AudioRef:     blobs.AudioKey(ec.ItemID),
		LanguageHint: o.languageHint,
	})
	if err != nil {
		return o.fail(ctx, ec, enums.WorkflowStateSubmitTranscription, enums.WorkflowStateTranscriptionFailed, err)
	}
	ec.job = job
	return enums.WorkflowStateWait, nil
}

func (o *Orchestrator) waitForTranscription(ctx context.Context, ec *execContext) (enums.WorkflowState, error) {
	defer o.track(ec, StageTranscription, o.now())

	if err := o.wait(ctx, ec.PollInterval); err != nil {
		return "", err
	}
	return enums.WorkflowStatePollTranscription, nil
}

func (o *Orchestrator) pollTranscription(ctx context.Context, ec *execContext) (enums.WorkflowState, error) {
	defer o.track(ec, StageTranscription, o.now())

	ec.result.Polls++
	status, err := o.transcriber.Poll(ctx, ec.job)
	if err != nil {
		return o.fail(ctx, ec, enums.WorkflowStatePollTranscription, enums.WorkflowStateTranscriptionFailed, err)
	}
	switch status {
	case enums.TranscriptionJobCompleted:
		return enums.WorkflowStateTranscriptionDone, nil
	case enums.TranscriptionJobFailed:
		return o.fail(ctx, ec, enums.WorkflowStatePollTranscription, enums.WorkflowStateTranscriptionFailed,
			fmt.Errorf("transcription job %s failed", ec.job.ID))
	default:
		return enums.WorkflowStateWait, nil
	}
}

func (o *Orchestrator) transcriptionDone(_ context.Context, _ *execContext) (enums.WorkflowState, error) {
	return enums.WorkflowStateGeneratePrompt, nil
}

// generatePrompt never fails on the generator: it falls back to the clipped transcript.
func (o *Orchestrator) generatePrompt(ctx context.Context, ec *execContext) (enums.WorkflowState, error) {
	defer o.track(ec, StagePrompt, o.now())

	transcript, err := o.transcriber.Transcript(ctx, ec.ItemID)
	if err != nil {
		return o.fail(ctx, ec, enums.WorkflowStateGeneratePrompt, enums.WorkflowStateTranscriptionFailed, err)
	}
	ec.transcript = transcript

	generated, err := o.prompter.Generate(ctx, transcript)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		o.logg.Warn(o.logg.WithFields(ctx, map[string]any{
			"stage": enums.WorkflowStateGeneratePrompt.String(),
			"error": err.Error(),
		}), "prompt generation failed, using transcript")
		generated = transcript
		ec.result.PromptFallback = true
	}
	ec.prompt = prompt.Clip(generated, o.promptMaxChars)
	return enums.WorkflowStateGenerateImage, nil
}

func (o *Orchestrator) generateImage(ctx context.Context, ec *execContext) (enums.WorkflowState, error) {
	defer o.track(ec, StageImage, o.now())

	ref, err := o.imager.Generate(ctx, ec.prompt, ec.ItemID)
	if err != nil {
		return o.fail(ctx, ec, enums.WorkflowStateGenerateImage, enums.WorkflowStateImageFailed, err)
	}
	ec.imageRef = ref
	return enums.WorkflowStateFinalize, nil
}

func (o *Orchestrator) finalize(ctx context.Context, ec *execContext) (enums.WorkflowState, error) {
	defer o.track(ec, StageFinalize, o.now())

	data, err := o.imager.Fetch(ctx, ec.imageRef)
	if err != nil {
		return o.fail(ctx, ec, enums.WorkflowStateFinalize, enums.WorkflowStateImageFailed, err)
	}
	if err := o.blobs.Put(ctx, blobs.ImageKey(ec.ItemID), data, blobs.ContentTypePNG); err != nil {
		return o.fail(ctx, ec, enums.WorkflowStateFinalize, enums.WorkflowStateImageFailed, err)
	}
	return enums.WorkflowStateFinished, nil
}

// fail records an adapter failure and routes to the failure state. A cancelled
// ctx is returned instead so the record is left untouched.
func (o *Orchestrator) fail(ctx context.Context, ec *execContext, stage, next enums.WorkflowState, err error) (enums.WorkflowState, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	adapterErr := &AdapterError{Stage: stage, Err: err}
	ec.result.Cause = adapterErr
	fields := pkgerrors.Dump(err).Fields()
	fields["stage"] = stage.String()
	fields["next"] = next.String()
	o.logg.Warn(o.logg.WithFields(ctx, fields), "workflow stage failed")
	return next, nil
}

func (o *Orchestrator) persist(ctx context.Context, ec *execContext, state enums.WorkflowState) error {
	var m items.Mutation
	switch state {
	case enums.WorkflowStateTranscriptionFailed:
		m = items.TranscriptionFailed()
	case enums.WorkflowStateImageFailed:
		m = items.ImageFailed(ec.transcript, ec.prompt)
	case enums.WorkflowStateFinished:
		m = items.Finished(ec.transcript, ec.prompt, blobs.ImageKey(ec.ItemID))
	default:
		return fmt.Errorf("state %s is not terminal", state)
	}
	if err := o.items.Update(ctx, ec.OwnerID, ec.ItemID, m); err != nil {
		perr := &PersistenceError{State: state, Err: err}
		o.logg.Error(ctx, "terminal status write failed", perr)
		return perr
	}
	return nil
}

func (o *Orchestrator) track(ec *execContext, stage string, started time.Time) {
	ec.result.Stages[stage] += o.now().Sub(started)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
