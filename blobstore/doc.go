// Package blobstore provides the storage abstraction behind shard
// persistence.
//
// Every persisted shard document (item log, compressed clusters, metadata,
// link table) is written through a BlobStore. Implementations must be safe
// for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem (default; atomic writes via rename)
//   - MemoryStore: in-memory, for tests
//   - minio.Store: MinIO and S3-compatible object storage
//   - s3.Store: Amazon S3 with streaming uploads
//
// # Appends
//
// The uncompressed item log is append-only. Stores that can append in
// place (LocalStore, MemoryStore) implement the optional Appender
// interface; for object stores the caller falls back to rewriting the
// whole blob.
package blobstore
