package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrEmptyKey   = errors.New("empty key")
	ErrBadKey     = errors.New("key escapes store root")
	ErrBlobAbsent = errors.New("blob not found")
)

// BlobStore holds exported question files.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string) (string, error) // fs returns "file://..." for dev
}
