package items

import (
	"fmt"

	"github.com/angelmondragon/speak2see-backend/pkg/enums"
)

// Mutation is a terminal write applied to an IN_PROGRESS item.
type Mutation struct {
	Status         enums.ProcessingStatus
	Transcript     *string
	Prompt         *string
	ResultImageRef *string
}

// Validate enforces the field shape each terminal status requires.
func (m Mutation) Validate() error {
	if !m.Status.IsTerminal() {
		return fmt.Errorf("%w: status %q is not terminal", ErrInvalidMutation, m.Status)
	}
	if (m.Transcript == nil) != (m.Prompt == nil) {
		return fmt.Errorf("%w: transcript and prompt must be set together", ErrInvalidMutation)
	}
	hasText := m.Transcript != nil
	hasImage := m.ResultImageRef != nil

	switch m.Status {
	case enums.ProcessingStatusTranscriptionFailed:
		if hasText || hasImage {
			return fmt.Errorf("%w: %s carries no transcript, prompt or image", ErrInvalidMutation, m.Status)
		}
	case enums.ProcessingStatusImageFailed:
		if !hasText {
			return fmt.Errorf("%w: %s requires transcript and prompt", ErrInvalidMutation, m.Status)
		}
		if hasImage {
			return fmt.Errorf("%w: %s carries no image", ErrInvalidMutation, m.Status)
		}
	case enums.ProcessingStatusFinished:
		if !hasText || !hasImage {
			return fmt.Errorf("%w: %s requires transcript, prompt and image", ErrInvalidMutation, m.Status)
		}
	}
	return nil
}

func TranscriptionFailed() Mutation {
	return Mutation{Status: enums.ProcessingStatusTranscriptionFailed}
}

func ImageFailed(transcript, prompt string) Mutation {
	return Mutation{Status: enums.ProcessingStatusImageFailed, Transcript: &transcript, Prompt: &prompt}
}

func Finished(transcript, prompt, imageRef string) Mutation {
	return Mutation{
		Status:         enums.ProcessingStatusFinished,
		Transcript:     &transcript,
		Prompt:         &prompt,
		ResultImageRef: &imageRef,
	}
}
