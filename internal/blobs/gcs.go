package blobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/speak2see-backend/pkg/storage/gcs"
)

// GCSStore adapts the bucket client to Store, translating missing objects to ErrNotFound.
type GCSStore struct {
	*gcs.Client
}

func NewGCSStore(client *gcs.Client) *GCSStore {
	return &GCSStore{Client: client}
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.Client.Get(ctx, key)
	if errors.Is(err, gcs.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}
