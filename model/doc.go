// Package model defines core types used throughout Vecmesh.
//
// # Data Types
//
//   - Item: a stored unit (embedding, score, payload, metadata, timestamps)
//   - QuantizedVector: int8 codes plus a scale factor for a float32 vector
//   - CompressedCluster: a quantized centroid with per-item quantized residuals
//
// # Link Types
//
//   - SemanticLink: weighted directed edge between shards, decays over time
//   - TemporalLink: co-access counter that can graduate into a semantic link
//   - Neighbor: the adjacency view consumed by graph traversal
//
// # Persistence Documents
//
//   - ShardMeta: the meta.json document of a shard directory
//   - LinkTable: the links.json document of a shard directory
package model
