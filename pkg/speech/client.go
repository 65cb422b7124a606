package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/gcp"
	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"
)

// Operation is the provider-neutral view of a long-running recognize job.
type Operation struct {
	Name         string
	Done         bool
	ErrorCode    int64
	ErrorMessage string
	// Response is the raw LongRunningRecognizeResponse JSON once Done without error.
	Response []byte
}

// Failed reports whether the operation finished with an error status.
func (o Operation) Failed() bool {
	return o.Done && (o.ErrorCode != 0 || o.ErrorMessage != "")
}

// Client is a lazily constructed Speech-to-Text client shared for the process lifetime.
type Client struct {
	gcp config.GCPConfig
	cfg config.SpeechConfig

	mu  sync.Mutex
	svc *speechapi.Service

	newService func(ctx context.Context, opts ...option.ClientOption) (*speechapi.Service, error)
}

func New(gcpCfg config.GCPConfig, cfg config.SpeechConfig) *Client {
	return &Client{gcp: gcpCfg, cfg: cfg, newService: speechapi.NewService}
}

func (c *Client) service(ctx context.Context) (*speechapi.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return c.svc, nil
	}
	svc, err := c.newService(ctx, gcp.ClientOptions(c.gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating speech service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

func (c *Client) recognitionConfig(languageCode string) *speechapi.RecognitionConfig {
	lang := strings.TrimSpace(languageCode)
	if lang == "" {
		lang = c.cfg.LanguageCode
	}
	rc := &speechapi.RecognitionConfig{
		LanguageCode:               lang,
		Model:                      c.cfg.Model,
		EnableAutomaticPunctuation: c.cfg.AutoPunctuation,
		MaxAlternatives:            c.cfg.MaxAlternatives,
	}
	if c.cfg.SampleRateHertz > 0 {
		rc.SampleRateHertz = c.cfg.SampleRateHertz
	}
	return rc
}

// StartRecognition submits a long-running recognize job for the audio at uri
// (gs://bucket/key) and returns the operation name.
func (c *Client) StartRecognition(ctx context.Context, uri, languageCode string) (string, error) {
	if strings.TrimSpace(uri) == "" {
		return "", errors.New("audio uri is required")
	}
	svc, err := c.service(ctx)
	if err != nil {
		return "", err
	}

	op, err := svc.Speech.Longrunningrecognize(&speechapi.LongRunningRecognizeRequest{
		Audio:  &speechapi.RecognitionAudio{Uri: uri},
		Config: c.recognitionConfig(languageCode),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("longrunningrecognize: %w", err)
	}
	if op == nil || op.Name == "" {
		return "", errors.New("longrunningrecognize returned no operation name")
	}
	return op.Name, nil
}

// Operation fetches the current state of a recognize job.
func (c *Client) Operation(ctx context.Context, name string) (Operation, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return Operation{}, err
	}
	op, err := svc.Operations.Get(name).Context(ctx).Do()
	if err != nil {
		return Operation{}, fmt.Errorf("get operation %q: %w", name, err)
	}
	return fromAPI(op), nil
}

func fromAPI(op *speechapi.Operation) Operation {
	if op == nil {
		return Operation{}
	}
	out := Operation{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		out.ErrorCode = op.Error.Code
		out.ErrorMessage = op.Error.Message
	}
	if len(op.Response) > 0 {
		out.Response = []byte(op.Response)
	}
	return out
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

// JoinTranscript returns the best alternative of every result joined by spaces.
func JoinTranscript(payload []byte) (string, error) {
	var resp recognizeResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", fmt.Errorf("decode recognize response: %w", err)
	}
	parts := make([]string, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
