package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS writes artifacts to a Google Cloud Storage bucket
type GCS struct {
	client *gcs.Client
	bucket string
}

// NewGCS creates a GCS backed bucket. Without a credentials file the
// application default credentials are used.
func NewGCS(ctx context.Context, cfg *Config) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required for type %q", TypeGCS)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads data in a single request, replacing any existing object
func (g *GCS) Put(ctx context.Context, key string, data []byte, contentType string) error {
	// Cancelling the context aborts the upload instead of committing a partial object.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		cancel()
		_ = w.Close()
		return &WriteError{Key: key, Err: err}
	}
	if err := w.Close(); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
