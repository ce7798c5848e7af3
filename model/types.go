package model

import (
	"encoding/json"
	"time"
)

// Item represents a stored unit: an embedding vector with payload and
// access-driven score.
//
// An item belongs to exactly one shard at any instant; it is never split
// across shards. Scores live in [0,1], decay over time and are reinforced
// on access.
type Item struct {
	ID           string            `json:"id"`
	Embedding    []float32         `json:"embedding"`
	Score        float64           `json:"score"`
	Payload      json.RawMessage   `json:"payload,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastAccessAt time.Time         `json:"last_access_at"`

	// Reconstructed marks items whose embedding was rebuilt from a
	// compressed cluster and therefore carries quantization error.
	Reconstructed bool `json:"reconstructed,omitempty"`
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	cp := *it
	cp.Embedding = make([]float32, len(it.Embedding))
	copy(cp.Embedding, it.Embedding)
	if it.Payload != nil {
		cp.Payload = make(json.RawMessage, len(it.Payload))
		copy(cp.Payload, it.Payload)
	}
	if it.Metadata != nil {
		cp.Metadata = make(map[string]string, len(it.Metadata))
		for k, v := range it.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// QuantizedVector is a lossy fixed-width integer encoding of a float32
// vector: codes plus the scale used to produce them.
// Reconstruction: v[i] ~= codes[i] / scale.
type QuantizedVector struct {
	Codes []int8  `json:"codes"`
	Scale float32 `json:"scale"`
	Dim   int     `json:"dim"`
}

// CompressedItem is an item inside a compressed cluster. The raw embedding
// is replaced by a quantized residual relative to the cluster centroid.
type CompressedItem struct {
	ID           string            `json:"id"`
	Residual     QuantizedVector   `json:"residual"`
	Score        float64           `json:"score"`
	Payload      json.RawMessage   `json:"payload,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastAccessAt time.Time         `json:"last_access_at"`
}

// CompressedCluster replaces a group of items inside a compressed shard:
// a quantized centroid plus one quantized residual per original item.
type CompressedCluster struct {
	Centroid QuantizedVector  `json:"centroid"`
	Items    []CompressedItem `json:"items"`
}

// LinkKind distinguishes the three edge types of the shard graph.
type LinkKind string

const (
	// LinkSemantic links shards whose centroids are similar. Weighted,
	// decays per maintenance pass.
	LinkSemantic LinkKind = "semantic"
	// LinkTemporal counts co-accesses; graduates into a semantic link.
	LinkTemporal LinkKind = "temporal"
	// LinkHierarchical is a static parent/child tree relation.
	LinkHierarchical LinkKind = "hierarchical"
)

// SemanticLink is a directed weighted edge to another shard.
type SemanticLink struct {
	Target      string    `json:"target"`
	Weight      float64   `json:"weight"`
	Activations int       `json:"activations"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemporalLink tracks how often two shards appear in the same result set.
type TemporalLink struct {
	Target       string    `json:"target"`
	Weight       float64   `json:"weight"`
	Count        int       `json:"count"`
	LastCoAccess time.Time `json:"last_co_access"`
}

// Neighbor is a single outgoing edge in the adjacency view that graph
// traversal consumes.
type Neighbor struct {
	Target string
	Weight float64
	Kind   LinkKind
}

// LinkTable is the links.json document: the full outgoing edge state of
// one shard. Links are stored per side; once decay has run independently
// on each side the graph may become asymmetric.
type LinkTable struct {
	Semantic []SemanticLink `json:"semantic"`
	Temporal []TemporalLink `json:"temporal"`
	Parent   string         `json:"parent,omitempty"`
	Children []string       `json:"children,omitempty"`
}

// ShardMeta is the meta.json document of a shard directory.
type ShardMeta struct {
	ID               string    `json:"id"`
	Dimension        int       `json:"dimension"`
	CreatedAt        time.Time `json:"created_at"`
	LastAccessAt     time.Time `json:"last_access_at"`
	ItemCount        int       `json:"item_count"`
	SizeEstimate     int64     `json:"size_estimate"`
	Centroid         []float32 `json:"centroid,omitempty"`
	Energy           float64   `json:"energy"`
	Compressed       bool      `json:"compressed"`
	CompressionRatio float64   `json:"compression_ratio,omitempty"`

	// Codec names the codec that wrote the shard documents. Load uses it
	// to pick the decoder for the item, cluster and link documents.
	Codec string `json:"codec,omitempty"`
}
