package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading and writing data blobs.
type BlobStore interface {
	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a new blob for streaming writes.
	// The blob becomes visible when the returned writer is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	io.Closer
}

// WritableBlob is a streaming write handle. Content is durable and
// visible only after Close returns nil.
type WritableBlob interface {
	io.Writer
	io.Closer
}

// Appender is an optional interface for stores that support appending
// to an existing blob in place.
type Appender interface {
	// Append appends data to the named blob, creating it if absent.
	Append(ctx context.Context, name string, data []byte) error
}

// ReadAll reads the full content of a named blob.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data := make([]byte, blob.Size())
	if len(data) == 0 {
		return data, nil
	}
	n, err := blob.ReadAt(ctx, data, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return data[:n], nil
}

// AppendTo appends data to a blob, using Appender when the store supports
// it and falling back to read-modify-write otherwise.
func AppendTo(ctx context.Context, store BlobStore, name string, data []byte) error {
	if a, ok := store.(Appender); ok {
		return a.Append(ctx, name, data)
	}

	existing, err := ReadAll(ctx, store, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return store.Put(ctx, name, append(existing, data...))
}
