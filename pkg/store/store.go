// Package store persists raw and structured transcript artifacts under S3-style keys.
package store

import (
	"context"
	"errors"
	"fmt"

	"foolcalls/pkg/config"
)

// ErrNotExist is returned by Get for a key that has not been written.
var ErrNotExist = errors.New("object does not exist")

// Content types and encodings written by the pipelines.
const (
	ContentTypeHTML = "text/html"
	ContentTypeJSON = "application/json"
	EncodingGzip    = "gzip"
)

// PutOptions describe an object being written.
type PutOptions struct {
	ContentType     string            `json:"content_type,omitempty"`
	ContentEncoding string            `json:"content_encoding,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Store is a flat key/value object store.
type Store interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every key starting with prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// New opens the backend selected by cfg.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFS, "":
		return NewFSStore(cfg.Dir), nil
	case config.BackendMinio:
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
