package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains file/object storage abstractions for document bytes and
// rendered artifacts. Keys are slash-separated and namespaced by owner.

// ErrNotFound is returned by Get and Delete when the key does not exist.
var ErrNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob store used for uploaded documents and their artifacts.
// Implementations must be durable once Put returns.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key. Missing keys yield ErrNotFound.
	Delete(ctx context.Context, key string) error
}
