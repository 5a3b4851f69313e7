package storage

import (
	"context"
	"fmt"
	"path"
)

// Backend types
const (
	TypeGCS    = "gcs"
	TypeFile   = "file"
	TypeMemory = "memory"
)

// Config contains configuration for the artifact storage backend
type Config struct {
	Type            string `json:"type" yaml:"type" default:"gcs"`
	Bucket          string `json:"bucket" yaml:"bucket" default:""`
	Prefix          string `json:"prefix" yaml:"prefix" default:""`
	Dir             string `json:"dir" yaml:"dir" default:"./archive"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file" default:""`
	Endpoint        string `json:"endpoint" yaml:"endpoint" default:""`
}

// Bucket is a put-by-key blob store. Put overwrites an existing object.
type Bucket interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Close() error
}

// WriteError reports a failed object write. Its message is the backend's.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// New creates the bucket selected by cfg.Type
func New(ctx context.Context, cfg *Config) (Bucket, error) {
	var (
		b   Bucket
		err error
	)
	switch cfg.Type {
	case TypeGCS, "":
		b, err = NewGCS(ctx, cfg)
	case TypeFile:
		b, err = NewFile(cfg.Dir)
	case TypeMemory:
		b = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Prefix != "" {
		b = &prefixed{Bucket: b, prefix: cfg.Prefix}
	}
	return b, nil
}

// prefixed places every key under a fixed path prefix
type prefixed struct {
	Bucket
	prefix string
}

func (p *prefixed) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return p.Bucket.Put(ctx, path.Join(p.prefix, key), data, contentType)
}
