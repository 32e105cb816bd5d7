package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore reads snapshots from a Google Cloud Storage bucket. When the
// bucket has no index object, the object listing serves as the index.
type GCSStore struct {
	client    *storage.Client
	Bucket    string
	IndexFile string
}

// NewGCSStore connects to bucket. An empty credentialsFile uses application
// default credentials.
func NewGCSStore(ctx context.Context, bucket, indexFile, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("credentials file %s: %w", credentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	return &GCSStore{client: client, Bucket: bucket, IndexFile: indexFile}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) Index(ctx context.Context) ([]string, error) {
	data, err := s.Fetch(ctx, s.IndexFile)
	if err == nil {
		return parseIndex(data), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var names []string
	it := s.client.Bucket(s.Bucket).Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s: %w", s.Bucket, err)
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *GCSStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	r, err := s.client.Bucket(s.Bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.Bucket, name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", s.Bucket, name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.Bucket, name, err)
	}
	return data, nil
}
