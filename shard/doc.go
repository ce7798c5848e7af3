// Package shard implements the bounded partition ("TN") of the vector
// store.
//
// A shard owns the authoritative item set for its partition: it answers
// local linear-scan similarity search, maintains a running centroid and a
// transient energy level, manages its own outgoing link table, compresses
// and decompresses itself via vector quantization, and persists its state
// through a blobstore.
//
// # Concurrency
//
// Shards follow a single-writer model: mutating operations (add,
// compress, prune, link maintenance) are serialized behind an exclusive
// lock; searches scan under a read lock and apply their reinforcement
// side effects under the write lock afterwards.
//
// # Compression is block-level
//
// A compressed shard must fully decompress before accepting a write.
// This is a deliberate simplification; it makes the first write to a cold
// shard pay the whole decompression cost at once.
//
// # Persistence
//
// One directory per shard id: items.jsonl (append-only, uncompressed
// state), items.compressed.json (compressed state; mutually exclusive in
// authority with the log), meta.json and links.json. Persistence failures
// are logged and the in-memory state stays authoritative until the next
// successful write; they are never surfaced to data-path callers.
package shard
