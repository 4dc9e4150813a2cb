package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"github.com/taxintake/intakeengine/internal/common"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCS stores objects in a Google Cloud Storage bucket. Writes are
// create-only: an existing object at the key is never overwritten.
type GCS struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
}

// NewGCS connects with application default credentials, or with the given
// service account file when credentialsFile is set.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: gcs bucket is required", common.ErrConfiguration)
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCS{client: client, bucket: client.Bucket(bucket)}, nil
}

func (s *GCS) Close() error {
	return s.client.Close()
}

func (s *GCS) Store(ctx context.Context, data []byte, name, category string) (string, error) {
	key := NewObjectKey(category, name)
	return key, s.Put(ctx, key, data, "")
}

func (s *GCS) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	w := s.bucket.Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fault("put", key, classifyGCS(err))
	}
	if err := w.Close(); err != nil {
		return fault("put", key, classifyGCS(err))
	}
	return nil
}

func (s *GCS) Fetch(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fault("fetch", key, err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fault("read", key, err)
	}
	return b, nil
}

func (s *GCS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.bucket.Object(key).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gcs.ErrObjectNotExist):
		return false, nil
	default:
		return false, fault("attrs", key, err)
	}
}

func (s *GCS) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fault("delete", key, err)
	}
	return nil
}

var errObjectExists = errors.New("object already exists")

// classifyGCS turns a failed precondition into errObjectExists.
func classifyGCS(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return errObjectExists
	}
	return err
}
