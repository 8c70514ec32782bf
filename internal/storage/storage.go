package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains byte sinks for uploaded documents. Keys are
// slash-separated relative paths produced by upload.AllocatePath.

var (
	// ErrInvalidKey is returned for keys that are empty, absolute or escape the root.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrObjectNotFound is returned by Get when nothing is stored under the key.
	ErrObjectNotFound = errors.New("object not found")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage persists uploaded bytes under relative keys.
type Storage interface {
	// Put writes the full content of r under key. Implementations either
	// store everything or leave nothing behind.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens a stored object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}
