package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/speak2see-backend/pkg/vertex"
)

var ErrEmptyPrompt = errors.New("generated prompt is empty")

// Generator turns a transcript into an image prompt.
type Generator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

const promptTemplate = `You are an expert at converting text descriptions into high-quality image generation prompts.
Your task is to create a detailed, visual prompt that captures the key elements and mood of the input text.
Guidelines for creating the prompt:
- Focus on visual elements and descriptions
- Include artistic style, mood, lighting, and composition
- Structure the prompt to work well with image generation models
- Keep the output concise but descriptive (aim for 100-150 characters)
- Maintain the core meaning and emotional tone of the original text
- Add relevant artistic details that would enhance the visual output
- Avoid any text, words, or numbers in the image description
- Only answer with the prompt itself
Text: %s
Prompt:`

type textModel interface {
	GenerateText(ctx context.Context, prompt string, params vertex.TextParams) (string, error)
}

// Vertex asks a Gemini model on Vertex AI for the prompt.
type Vertex struct {
	model   textModel
	timeout time.Duration
}

func NewVertex(model textModel, requestTimeout time.Duration) *Vertex {
	return &Vertex{model: model, timeout: requestTimeout}
}

func (v *Vertex) Generate(ctx context.Context, transcript string) (string, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	out, err := v.model.GenerateText(ctx, fmt.Sprintf(promptTemplate, transcript), vertex.TextParams{
		Temperature:     0,
		TopP:            0.9,
		MaxOutputTokens: 256,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyPrompt
	}
	return out, nil
}

// ClippedGenerator bounds another generator's output to MaxChars runes.
type ClippedGenerator struct {
	Next     Generator
	MaxChars int
}

func (c ClippedGenerator) Generate(ctx context.Context, transcript string) (string, error) {
	out, err := c.Next.Generate(ctx, transcript)
	if err != nil {
		return "", err
	}
	out = Clip(strings.TrimSpace(out), c.MaxChars)
	if out == "" {
		return "", ErrEmptyPrompt
	}
	return out, nil
}

// Clip returns the first n runes of s. n <= 0 disables clipping.
func Clip(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
