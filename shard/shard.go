package shard

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vecmesh/blobstore"
	"github.com/hupe1980/vecmesh/codec"
	"github.com/hupe1980/vecmesh/distance"
	"github.com/hupe1980/vecmesh/model"
	"github.com/hupe1980/vecmesh/quantization"
)

// Energy deltas. Energy is a transient hotness score in [0,1]: writes and
// read-hits heat a shard up, every maintenance pass cools it down.
const (
	energyWrite      = 0.05
	energyRead       = 0.03
	energyMaintCost  = 0.01
	scoreReadBoost   = 0.02
	clusterPrefilter = 0.5
)

// Config holds per-shard tunables. The zero value selects the defaults.
type Config struct {
	// Store persists shard state. If nil the shard is memory-only.
	Store blobstore.BlobStore
	// Codec encodes persisted documents. Defaults to codec.Default.
	Codec codec.Codec
	// Logger receives persistence warnings. Defaults to a discard logger.
	Logger *slog.Logger

	// CompressionThreshold gates lossy cluster compression.
	// Defaults to quantization.DefaultClusterThreshold (0.90).
	CompressionThreshold float64
	// MinCompressItems is the minimum item count before compression pays
	// off. Defaults to 10.
	MinCompressItems int
	// MaxLinks bounds the outgoing semantic link table. Defaults to 20.
	MaxLinks int
	// LinkFloor is the weight below which a decayed semantic link is
	// dropped. Defaults to 0.05.
	LinkFloor float64
	// TemporalMaxAge is the age past which an unused temporal link is
	// dropped. Defaults to 30 days.
	TemporalMaxAge time.Duration
}

func (c *Config) applyDefaults() {
	if c.Codec == nil {
		c.Codec = codec.Default
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.CompressionThreshold <= 0 {
		c.CompressionThreshold = quantization.DefaultClusterThreshold
	}
	if c.MinCompressItems <= 0 {
		c.MinCompressItems = 10
	}
	if c.MaxLinks <= 0 {
		c.MaxLinks = 20
	}
	if c.LinkFloor <= 0 {
		c.LinkFloor = 0.05
	}
	if c.TemporalMaxAge <= 0 {
		c.TemporalMaxAge = 30 * 24 * time.Hour
	}
}

// Shard is a bounded partition of the store: the authoritative item set
// plus derived centroid, energy and link state.
type Shard struct {
	mu sync.RWMutex

	id  string
	dim int
	cfg Config

	items        []*model.Item
	centroid     []float32
	sizeEstimate int64
	energy       float64
	createdAt    time.Time
	lastAccessAt time.Time

	compressed bool
	clusters   []model.CompressedCluster
	ratio      float64

	semantic map[string]*model.SemanticLink
	temporal map[string]*model.TemporalLink
	parent   string
	children map[string]struct{}

	persist *persister // nil for memory-only shards
}

// New creates an empty shard. If cfg.Store is set, the shard directory is
// initialized on the first successful metadata write.
func New(id string, dim int, cfg Config) *Shard {
	cfg.applyDefaults()

	s := &Shard{
		id:        id,
		dim:       dim,
		cfg:       cfg,
		createdAt: time.Now(),
		semantic:  make(map[string]*model.SemanticLink),
		temporal:  make(map[string]*model.TemporalLink),
		children:  make(map[string]struct{}),
	}
	s.lastAccessAt = s.createdAt
	if cfg.Store != nil {
		s.persist = &persister{
			store:  cfg.Store,
			codec:  cfg.Codec,
			logger: cfg.Logger,
			prefix: id,
		}
	}
	return s
}

// Load restores a shard from its persisted directory.
func Load(ctx context.Context, id string, cfg Config) (*Shard, error) {
	cfg.applyDefaults()
	if cfg.Store == nil {
		return nil, errNoStore
	}

	p := &persister{
		store:  cfg.Store,
		codec:  cfg.Codec,
		logger: cfg.Logger,
		prefix: id,
	}
	state, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	s := &Shard{
		id:           id,
		dim:          state.meta.Dimension,
		cfg:          cfg,
		items:        state.items,
		centroid:     state.meta.Centroid,
		sizeEstimate: state.meta.SizeEstimate,
		energy:       state.meta.Energy,
		createdAt:    state.meta.CreatedAt,
		lastAccessAt: state.meta.LastAccessAt,
		compressed:   state.meta.Compressed,
		clusters:     state.clusters,
		ratio:        state.meta.CompressionRatio,
		semantic:     state.semantic,
		temporal:     state.temporal,
		parent:       state.links.Parent,
		children:     make(map[string]struct{}),
		persist:      p,
	}
	for _, child := range state.links.Children {
		s.children[child] = struct{}{}
	}
	return s, nil
}

// ID returns the shard id.
func (s *Shard) ID() string { return s.id }

// Dimension returns the embedding dimension the shard was created with.
func (s *Shard) Dimension() int { return s.dim }

// AddItem stores an item in the shard.
//
// Missing timestamps and score are defaulted, the centroid and size
// estimate are recomputed and metadata is persisted synchronously before
// returning. If the shard is compressed it fully decompresses first:
// compression is block-level, not incremental.
//
// Persistence failures are logged; the in-memory mutation still succeeds.
func (s *Shard) AddItem(ctx context.Context, item *model.Item) (*model.Item, error) {
	if len(item.Embedding) != s.dim {
		return nil, &ErrDimensionMismatch{Expected: s.dim, Actual: len(item.Embedding)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.compressed {
		s.decompressLocked(ctx)
	}

	now := time.Now()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.LastAccessAt.IsZero() {
		item.LastAccessAt = now
	}
	if item.Score == 0 {
		item.Score = 1.0
	}

	stored := item.Clone()
	s.items = append(s.items, stored)
	s.lastAccessAt = now
	s.energy = clamp01(s.energy + energyWrite)
	s.recomputeCentroidLocked()

	if s.persist != nil {
		size := s.persist.appendItem(ctx, stored)
		s.sizeEstimate += size
		s.persist.writeMeta(ctx, s.metaLocked())
	} else {
		s.sizeEstimate += encodedSize(s.cfg.Codec, stored)
	}

	return stored.Clone(), nil
}

// Hit is a single local search result.
type Hit struct {
	Item       *model.Item
	Similarity float64
}

// Search scores candidates against the query by cosine similarity and
// returns the top k, most similar first.
//
// On a compressed shard only clusters whose quantized centroid clears a
// cheap similarity prefilter (0.5) are decompressed and scored. Returned
// items are reinforced: lastAccessAt is refreshed and score is boosted by
// +0.02 (capped at 1.0), so frequently retrieved items resist decay.
func (s *Shard) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if len(query) != s.dim {
		return nil, &ErrDimensionMismatch{Expected: s.dim, Actual: len(query)}
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	var candidates []*model.Item
	if s.compressed {
		for i := range s.clusters {
			centroid := quantization.Dequantize(s.clusters[i].Centroid)
			if distance.Cosine(centroid, query) > clusterPrefilter {
				candidates = append(candidates, quantization.DecompressCluster(&s.clusters[i])...)
			}
		}
	} else {
		candidates = s.items
	}

	hits := make([]Hit, 0, len(candidates))
	for _, it := range candidates {
		hits = append(hits, Hit{Item: it, Similarity: distance.Cosine(it.Embedding, query)})
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Item.ID < hits[j].Item.ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	if len(hits) == 0 {
		return hits, nil
	}
	return s.reinforce(hits), nil
}

// reinforce applies the read-side effects for the returned hits and takes
// the caller-facing clones under the same write lock, so a concurrent
// search never mutates an item while it is being copied out.
func (s *Shard) reinforce(hits []Hit) []Hit {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	// Clones are taken before the boost and patched explicitly: on a
	// compressed shard the hit items are decompressed copies, not the
	// authoritative cluster entries.
	out := make([]Hit, len(hits))
	want := make(map[string]struct{}, len(hits))
	for i, h := range hits {
		want[h.Item.ID] = struct{}{}
		clone := h.Item.Clone()
		clone.LastAccessAt = now
		clone.Score = clamp01(clone.Score + scoreReadBoost)
		out[i] = Hit{Item: clone, Similarity: h.Similarity}
	}

	if s.compressed {
		for ci := range s.clusters {
			for ii := range s.clusters[ci].Items {
				it := &s.clusters[ci].Items[ii]
				if _, ok := want[it.ID]; ok {
					it.LastAccessAt = now
					it.Score = clamp01(it.Score + scoreReadBoost)
				}
			}
		}
	} else {
		for _, it := range s.items {
			if _, ok := want[it.ID]; ok {
				it.LastAccessAt = now
				it.Score = clamp01(it.Score + scoreReadBoost)
			}
		}
	}

	s.lastAccessAt = now
	s.energy = clamp01(s.energy + energyRead)
	return out
}

// ItemCount returns the number of live items (raw or inside clusters).
func (s *Shard) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemCountLocked()
}

func (s *Shard) itemCountLocked() int {
	if s.compressed {
		n := 0
		for i := range s.clusters {
			n += len(s.clusters[i].Items)
		}
		return n
	}
	return len(s.items)
}

// Centroid returns a copy of the shard centroid, or nil if the shard has
// no items.
func (s *Shard) Centroid() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.centroid == nil {
		return nil
	}
	cp := make([]float32, len(s.centroid))
	copy(cp, s.centroid)
	return cp
}

// SizeEstimate returns the serialized size estimate in bytes.
func (s *Shard) SizeEstimate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sizeEstimate
}

// Utilization returns sizeEstimate/capacity, 0 if capacity is 0.
func (s *Shard) Utilization(capacity int64) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(s.SizeEstimate()) / float64(capacity)
}

// Energy returns the transient hotness score in [0,1].
func (s *Shard) Energy() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.energy
}

// Compressed reports whether the shard currently holds compressed state.
func (s *Shard) Compressed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compressed
}

// CompressionRatio returns the achieved before/after ratio, 0 if the
// shard was never compressed. Informational only.
func (s *Shard) CompressionRatio() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratio
}

// Meta returns a snapshot of the shard-level metadata document.
func (s *Shard) Meta() model.ShardMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metaLocked()
}

func (s *Shard) metaLocked() model.ShardMeta {
	return model.ShardMeta{
		ID:               s.id,
		Dimension:        s.dim,
		CreatedAt:        s.createdAt,
		LastAccessAt:     s.lastAccessAt,
		ItemCount:        s.itemCountLocked(),
		SizeEstimate:     s.sizeEstimate,
		Centroid:         s.centroid,
		Energy:           s.energy,
		Compressed:       s.compressed,
		CompressionRatio: s.ratio,
		Codec:            s.cfg.Codec.Name(),
	}
}

// recomputeCentroidLocked recomputes the centroid from the raw item set.
// Must be called with the write lock held and the shard uncompressed.
func (s *Shard) recomputeCentroidLocked() {
	if len(s.items) == 0 {
		s.centroid = nil
		return
	}
	vectors := make([][]float32, len(s.items))
	for i, it := range s.items {
		vectors[i] = it.Embedding
	}
	s.centroid = quantization.ComputeCentroid(vectors)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func encodedSize(c codec.Codec, v any) int64 {
	b, err := c.Marshal(v)
	if err != nil {
		return 0
	}
	return int64(len(b))
}
