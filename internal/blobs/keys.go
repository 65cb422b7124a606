package blobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when the requested key has no object.
var ErrNotFound = errors.New("blob not found")

const (
	audioSuffix      = "audio"
	imageSuffix      = "image"
	transcriptSuffix = "transcript.json"
	imageJSONSuffix  = "image.json"

	ContentTypeWAV  = "audio/wav"
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
)

// Store is the blob surface the workflow and services depend on.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	URI(key string) string
}

func AudioKey(itemID uuid.UUID) string {
	return key(itemID, audioSuffix)
}

func ImageKey(itemID uuid.UUID) string {
	return key(itemID, imageSuffix)
}

// TranscriptKey is where the transcription adapter keeps the raw provider result.
func TranscriptKey(itemID uuid.UUID) string {
	return key(itemID, transcriptSuffix)
}

// ImageJSONKey is where the image adapter keeps the raw provider result.
func ImageJSONKey(itemID uuid.UUID) string {
	return key(itemID, imageJSONSuffix)
}

// ItemPrefix matches every object written for an item.
func ItemPrefix(itemID uuid.UUID) string {
	return itemID.String() + "/"
}

// ItemIDFromKey extracts the item id from any key in the layout.
func ItemIDFromKey(k string) (uuid.UUID, error) {
	head, _, ok := strings.Cut(k, "/")
	if !ok {
		return uuid.Nil, fmt.Errorf("blob key %q has no item prefix", k)
	}
	return uuid.Parse(head)
}

func key(itemID uuid.UUID, suffix string) string {
	return itemID.String() + "/" + suffix
}
