package enums

import "testing"

func TestProcessingStatusTransitions(t *testing.T) {
	terminal := []ProcessingStatus{
		ProcessingStatusTranscriptionFailed,
		ProcessingStatusImageFailed,
		ProcessingStatusFinished,
	}

	for _, to := range terminal {
		if !ProcessingStatusInProgress.CanTransition(to) {
			t.Fatalf("expected IN_PROGRESS -> %s to be allowed", to)
		}
	}
	if ProcessingStatusInProgress.CanTransition(ProcessingStatusInProgress) {
		t.Fatal("IN_PROGRESS -> IN_PROGRESS should not be a transition")
	}
	for _, from := range terminal {
		if !from.IsTerminal() {
			t.Fatalf("expected %s to be terminal", from)
		}
		for _, to := range append(terminal, ProcessingStatusInProgress) {
			if from.CanTransition(to) {
				t.Fatalf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestProcessingStatusHasTranscript(t *testing.T) {
	cases := map[ProcessingStatus]bool{
		ProcessingStatusInProgress:          false,
		ProcessingStatusTranscriptionFailed: false,
		ProcessingStatusImageFailed:         true,
		ProcessingStatusFinished:            true,
	}
	for status, want := range cases {
		if got := status.HasTranscript(); got != want {
			t.Fatalf("%s: expected HasTranscript %v, got %v", status, want, got)
		}
	}
}

func TestParseProcessingStatus(t *testing.T) {
	got, err := ParseProcessingStatus("FINISHED")
	if err != nil || got != ProcessingStatusFinished {
		t.Fatalf("expected FINISHED, got %q err=%v", got, err)
	}
	if _, err := ParseProcessingStatus("finished"); err == nil {
		t.Fatal("expected error for lowercase status")
	}
}

func TestWorkflowStateProcessingStatus(t *testing.T) {
	cases := map[WorkflowState]ProcessingStatus{
		WorkflowStatePollTranscription:   ProcessingStatusInProgress,
		WorkflowStateTranscriptionFailed: ProcessingStatusTranscriptionFailed,
		WorkflowStateImageFailed:         ProcessingStatusImageFailed,
		WorkflowStateFinished:            ProcessingStatusFinished,
	}
	for state, want := range cases {
		if got := state.ProcessingStatus(); got != want {
			t.Fatalf("%s: expected %s, got %s", state, want, got)
		}
		if state.IsTerminal() != want.IsTerminal() {
			t.Fatalf("%s: terminal mismatch", state)
		}
	}
}

func TestParseWorkflowProfile(t *testing.T) {
	if p, err := ParseWorkflowProfile(""); err != nil || p != WorkflowProfileStandard {
		t.Fatalf("expected STANDARD default, got %q err=%v", p, err)
	}
	if p, err := ParseWorkflowProfile(" express "); err != nil || p != WorkflowProfileExpress {
		t.Fatalf("expected EXPRESS, got %q err=%v", p, err)
	}
	if _, err := ParseWorkflowProfile("turbo"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestTranscriptionJobStatusIsDone(t *testing.T) {
	if TranscriptionJobRunning.IsDone() || TranscriptionJobQueued.IsDone() {
		t.Fatal("queued/running should not be done")
	}
	if !TranscriptionJobCompleted.IsDone() || !TranscriptionJobFailed.IsDone() {
		t.Fatal("completed/failed should be done")
	}
}
