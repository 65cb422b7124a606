package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/gcp"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
	"go.uber.org/multierr"
	"google.golang.org/api/iterator"
)

const pingTimeout = 5 * time.Second

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("gcs object not found")

var errClientNotInitialized = errors.New("gcs client not initialized")

type Pinger interface {
	Ping(ctx context.Context) error
}

// Client reads and writes objects in a single bucket.
type Client struct {
	client *storage.Client
	bucket string
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcpCfg config.GCPConfig, logg *logger.Logger) (*Client, error) {
	bucket := strings.TrimSpace(cfg.BucketName)
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	sc, err := storage.NewClient(ctx, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	client := &Client{client: sc, bucket: bucket}
	if err := client.Ping(ctx); err != nil {
		_ = sc.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", bucket), "gcs client initialized")
	}
	return client, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// URI returns the gs:// form of key, as consumed by Google APIs.
func (c *Client) URI(key string) string {
	return fmt.Sprintf("gs://%s/%s", c.Bucket(), cleanKey(key))
}

// Put writes data at key, replacing any existing object.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	name := cleanKey(key)
	if name == "" {
		return errors.New("object key is required")
	}

	w := c.client.Bucket(c.bucket).Object(name).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %q: %w", name, err)
	}
	return nil
}

// Get reads the object at key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, errClientNotInitialized
	}
	name := cleanKey(key)
	r, err := c.client.Bucket(c.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
		}
		return nil, fmt.Errorf("open object %q: %w", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", name, err)
	}
	return data, nil
}

// Delete removes the object at key. Missing objects are not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	name := cleanKey(key)
	if err := c.client.Bucket(c.bucket).Object(name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %q: %w", name, err)
	}
	return nil
}

// DeletePrefix removes every object under prefix and reports all failures.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	p := cleanKey(prefix)
	if p == "" {
		return errors.New("refusing to delete an empty prefix")
	}

	var errs error
	it := c.client.Bucket(c.bucket).Objects(ctx, &storage.Query{Prefix: p})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list %q: %w", p, err))
		}
		errs = multierr.Append(errs, c.Delete(ctx, attrs.Name))
	}
	return errs
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.client.Bucket(c.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %q: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func cleanKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}
