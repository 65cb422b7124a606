package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/gcp"
	"google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/option"
)

var (
	ErrEmptyResponse   = errors.New("vertex returned no content")
	errProjectRequired = errors.New("gcp project id is required")
)

// TextParams tunes a generateContent call.
type TextParams struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int64
}

// ImageParams tunes an Imagen predict call.
type ImageParams struct {
	SampleCount   int
	AspectRatio   string
	Seed          int
	GuidanceScale float64
}

// Client is a process-lifetime Vertex AI client. The underlying service is
// built on first use and shared by every caller afterwards.
type Client struct {
	gcp config.GCPConfig
	cfg config.VertexConfig

	mu  sync.Mutex
	svc *aiplatform.Service

	newService func(ctx context.Context, opts ...option.ClientOption) (*aiplatform.Service, error)
}

func New(gcpCfg config.GCPConfig, cfg config.VertexConfig) (*Client, error) {
	if strings.TrimSpace(gcpCfg.ProjectID) == "" {
		return nil, errProjectRequired
	}
	return &Client{gcp: gcpCfg, cfg: cfg, newService: aiplatform.NewService}, nil
}

func (c *Client) location() string {
	if loc := strings.TrimSpace(c.cfg.Location); loc != "" {
		return loc
	}
	return c.gcp.Location
}

func (c *Client) service(ctx context.Context) (*aiplatform.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return c.svc, nil
	}
	svc, err := c.newService(ctx, gcp.ClientOptions(c.gcp, option.WithEndpoint(gcp.RegionalEndpoint(c.location())))...)
	if err != nil {
		return nil, fmt.Errorf("creating vertex service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

// ModelName returns the fully qualified publisher model resource name.
func (c *Client) ModelName(model string) string {
	return fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", c.gcp.ProjectID, c.location(), model)
}

// GenerateText sends a single user turn to the configured text model and returns the first candidate's text.
func (c *Client) GenerateText(ctx context.Context, prompt string, params TextParams) (string, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return "", err
	}

	req := &aiplatform.GoogleCloudAiplatformV1GenerateContentRequest{
		Contents: []*aiplatform.GoogleCloudAiplatformV1Content{{
			Role:  "user",
			Parts: []*aiplatform.GoogleCloudAiplatformV1Part{{Text: prompt}},
		}},
		GenerationConfig: &aiplatform.GoogleCloudAiplatformV1GenerationConfig{
			Temperature:     params.Temperature,
			TopP:            params.TopP,
			MaxOutputTokens: params.MaxOutputTokens,
			ForceSendFields: []string{"Temperature"},
		},
	}

	resp, err := svc.Projects.Locations.Publishers.Models.
		GenerateContent(c.ModelName(c.cfg.TextModel), req).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return firstCandidateText(resp)
}

func firstCandidateText(resp *aiplatform.GoogleCloudAiplatformV1GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyResponse
}

// PredictImage runs the configured Imagen model and returns the raw prediction payload as JSON.
func (c *Client) PredictImage(ctx context.Context, prompt string, params ImageParams) ([]byte, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	parameters := map[string]any{
		"sampleCount":   max(params.SampleCount, 1),
		"addWatermark":  false,
		"seed":          params.Seed,
		"guidanceScale": params.GuidanceScale,
	}
	if params.AspectRatio != "" {
		parameters["aspectRatio"] = params.AspectRatio
	}

	req := &aiplatform.GoogleCloudAiplatformV1PredictRequest{
		Instances:  []interface{}{map[string]any{"prompt": prompt}},
		Parameters: parameters,
	}

	resp, err := svc.Projects.Locations.Publishers.Models.
		Predict(c.ModelName(c.cfg.ImageModel), req).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("predict image: %w", err)
	}
	if resp == nil || len(resp.Predictions) == 0 {
		return nil, ErrEmptyResponse
	}
	payload, err := json.Marshal(resp.Predictions)
	if err != nil {
		return nil, fmt.Errorf("encode predictions: %w", err)
	}
	return payload, nil
}
