package image

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/speak2see-backend/internal/blobs"
	"github.com/angelmondragon/speak2see-backend/pkg/vertex"
	"github.com/google/uuid"
)

var ErrNoImage = errors.New("image result has no image data")

// Ref locates a generated image result in the blob store.
type Ref string

// Generator produces an image for a prompt and exposes its bytes.
type Generator interface {
	Generate(ctx context.Context, prompt string, itemID uuid.UUID) (Ref, error)
	Fetch(ctx context.Context, ref Ref) ([]byte, error)
}

type imageModel interface {
	PredictImage(ctx context.Context, prompt string, params vertex.ImageParams) ([]byte, error)
}

// Vertex generates images with Imagen and keeps the raw predictions as {itemID}/image.json.
type Vertex struct {
	model   imageModel
	store   blobs.Store
	params  vertex.ImageParams
	timeout time.Duration
}

type Options struct {
	Seed          int
	GuidanceScale float64
	Timeout       time.Duration
}

func NewVertex(model imageModel, store blobs.Store, opts Options) *Vertex {
	return &Vertex{
		model: model,
		store: store,
		params: vertex.ImageParams{
			SampleCount:   1,
			AspectRatio:   "1:1",
			Seed:          opts.Seed,
			GuidanceScale: opts.GuidanceScale,
		},
		timeout: opts.Timeout,
	}
}

func (v *Vertex) Generate(ctx context.Context, prompt string, itemID uuid.UUID) (Ref, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is required")
	}
	callCtx := ctx
	if v.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	payload, err := v.model.PredictImage(callCtx, prompt, v.params)
	if err != nil {
		return "", err
	}
	if _, err := decodeFirstImage(payload); err != nil {
		return "", err
	}

	key := blobs.ImageJSONKey(itemID)
	if err := v.store.Put(ctx, key, payload, blobs.ContentTypeJSON); err != nil {
		return "", fmt.Errorf("store image result: %w", err)
	}
	return Ref(key), nil
}

func (v *Vertex) Fetch(ctx context.Context, ref Ref) ([]byte, error) {
	payload, err := v.store.Get(ctx, string(ref))
	if err != nil {
		return nil, err
	}
	return decodeFirstImage(payload)
}

type prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
	RAIFilteredReason  string `json:"raiFilteredReason"`
}

func decodeFirstImage(payload []byte) ([]byte, error) {
	var preds []prediction
	if err := json.Unmarshal(payload, &preds); err != nil {
		return nil, fmt.Errorf("decode image result: %w", err)
	}
	for _, p := range preds {
		if p.BytesBase64Encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("decode image bytes: %w", err)
		}
		return data, nil
	}
	if len(preds) > 0 && preds[0].RAIFilteredReason != "" {
		return nil, fmt.Errorf("%w: filtered: %s", ErrNoImage, preds[0].RAIFilteredReason)
	}
	return nil, ErrNoImage
}
