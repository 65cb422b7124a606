package enums

import "fmt"

// TranscriptionJobStatus is the normalized state of a remote transcription job.
type TranscriptionJobStatus string

const (
	TranscriptionJobQueued    TranscriptionJobStatus = "QUEUED"
	TranscriptionJobRunning   TranscriptionJobStatus = "RUNNING"
	TranscriptionJobCompleted TranscriptionJobStatus = "COMPLETED"
	TranscriptionJobFailed    TranscriptionJobStatus = "FAILED"
)

var validTranscriptionJobStatuses = []TranscriptionJobStatus{
	TranscriptionJobQueued,
	TranscriptionJobRunning,
	TranscriptionJobCompleted,
	TranscriptionJobFailed,
}

func (s TranscriptionJobStatus) String() string {
	return string(s)
}

func (s TranscriptionJobStatus) IsValid() bool {
	for _, candidate := range validTranscriptionJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsDone reports whether the job reached COMPLETED or FAILED.
func (s TranscriptionJobStatus) IsDone() bool {
	return s == TranscriptionJobCompleted || s == TranscriptionJobFailed
}

func ParseTranscriptionJobStatus(value string) (TranscriptionJobStatus, error) {
	for _, candidate := range validTranscriptionJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transcription job status %q", value)
}
