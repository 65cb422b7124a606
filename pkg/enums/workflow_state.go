package enums

// WorkflowState enumerates the orchestrator's states for one execution.
type WorkflowState string

const (
	WorkflowStateStart               WorkflowState = "START"
	WorkflowStateSubmitTranscription WorkflowState = "SUBMIT_TRANSCRIPTION"
	WorkflowStateWait                WorkflowState = "WAIT"
	WorkflowStatePollTranscription   WorkflowState = "POLL_TRANSCRIPTION"
	WorkflowStateTranscriptionDone   WorkflowState = "TRANSCRIPTION_DONE"
	WorkflowStateTranscriptionFailed WorkflowState = "TRANSCRIPTION_FAILED"
	WorkflowStateGeneratePrompt      WorkflowState = "GENERATE_PROMPT"
	WorkflowStateGenerateImage       WorkflowState = "GENERATE_IMAGE"
	WorkflowStateFinalize            WorkflowState = "FINALIZE"
	WorkflowStateFinished            WorkflowState = "FINISHED"
	WorkflowStateImageFailed         WorkflowState = "IMAGE_FAILED"
)

func (s WorkflowState) String() string {
	return string(s)
}

// IsTerminal reports whether the state ends the execution.
func (s WorkflowState) IsTerminal() bool {
	switch s {
	case WorkflowStateTranscriptionFailed, WorkflowStateImageFailed, WorkflowStateFinished:
		return true
	default:
		return false
	}
}

// ProcessingStatus maps a terminal state to the persisted status. Non-terminal
// states map to IN_PROGRESS.
func (s WorkflowState) ProcessingStatus() ProcessingStatus {
	switch s {
	case WorkflowStateTranscriptionFailed:
		return ProcessingStatusTranscriptionFailed
	case WorkflowStateImageFailed:
		return ProcessingStatusImageFailed
	case WorkflowStateFinished:
		return ProcessingStatusFinished
	default:
		return ProcessingStatusInProgress
	}
}
