package enums

import "fmt"

// ProcessingStatus is the caller-visible lifecycle state of a processing item.
type ProcessingStatus string

const (
	ProcessingStatusInProgress          ProcessingStatus = "IN_PROGRESS"
	ProcessingStatusTranscriptionFailed ProcessingStatus = "TRANSCRIPTION_FAILED"
	ProcessingStatusImageFailed         ProcessingStatus = "IMAGE_FAILED"
	ProcessingStatusFinished            ProcessingStatus = "FINISHED"
)

var validProcessingStatuses = []ProcessingStatus{
	ProcessingStatusInProgress,
	ProcessingStatusTranscriptionFailed,
	ProcessingStatusImageFailed,
	ProcessingStatusFinished,
}

// String returns the literal string for the status.
func (s ProcessingStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s ProcessingStatus) IsValid() bool {
	for _, candidate := range validProcessingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s ProcessingStatus) IsTerminal() bool {
	switch s {
	case ProcessingStatusTranscriptionFailed, ProcessingStatusImageFailed, ProcessingStatusFinished:
		return true
	default:
		return false
	}
}

// HasTranscript reports whether records in this status carry transcript and prompt.
func (s ProcessingStatus) HasTranscript() bool {
	return s == ProcessingStatusImageFailed || s == ProcessingStatusFinished
}

// CanTransition reports whether s may move to next. Only IN_PROGRESS has outgoing edges.
func (s ProcessingStatus) CanTransition(next ProcessingStatus) bool {
	return s == ProcessingStatusInProgress && next.IsTerminal()
}

// ParseProcessingStatus converts raw input into a ProcessingStatus.
func ParseProcessingStatus(value string) (ProcessingStatus, error) {
	for _, candidate := range validProcessingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid processing status %q", value)
}
