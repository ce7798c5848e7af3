// Package quantization provides lossy vector compression for cold shards.
//
// Vectors are scalar-quantized to signed 8-bit codes with a per-vector
// scale. Inside a compressed cluster, each item stores only its residual
// against the cluster centroid, quantized to a narrower +-15 range to
// model 4-bit precision. Reconstruction error is bounded by the per-vector
// quantization step size.
//
// Compression is gated: a cluster whose mean member-to-centroid cosine
// similarity falls below the threshold is reported as not compressible
// rather than degraded silently. Callers must handle both outcomes.
package quantization
