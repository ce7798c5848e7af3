package vecmesh

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vecmesh/blobstore"
	"github.com/hupe1980/vecmesh/distance"
	"github.com/hupe1980/vecmesh/model"
	"github.com/hupe1980/vecmesh/resource"
	"github.com/hupe1980/vecmesh/shard"
)

// saturationLimit is the utilization above which the store refuses to
// route further inserts into a shard.
const saturationLimit = 0.95

// Store is the shard manager: it owns the shard collection, routes and
// places new items, discovers and reinforces the inter-shard link graph,
// executes hybrid queries and runs periodic maintenance.
//
// All methods are safe for concurrent use. There is no global lock across
// shards; the registry lock only guards the shard set itself, and each
// shard serializes its own mutations.
type Store struct {
	mu sync.RWMutex

	dim    int
	opts   options
	closed bool

	shards   map[string]*shard.Shard
	ordinals map[string]uint32 // dense ordinal per shard, for bitmap visited sets
	order    []string          // ordinal -> shard id, insertion-ordered

	logger  *Logger
	metrics MetricsCollector
	res     *resource.Controller
}

// New creates an empty store for embeddings of the given dimension.
func New(dimension int, optFns ...Option) (*Store, error) {
	if dimension <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dimension}
	}

	opts := buildOptions(optFns)

	return &Store{
		dim:      dimension,
		opts:     opts,
		shards:   make(map[string]*shard.Shard),
		ordinals: make(map[string]uint32),
		logger:   opts.logger,
		metrics:  opts.metrics,
		res:      resource.NewController(opts.resource),
	}, nil
}

// Open restores a store from its persisted shard directories. A blob
// store must be configured (WithBlobStore or WithLocalPath); the
// dimension is taken from the persisted shard metadata.
func Open(ctx context.Context, optFns ...Option) (*Store, error) {
	opts := buildOptions(optFns)
	if opts.store == nil {
		return nil, ErrNoPersistence
	}

	names, err := opts.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	for _, name := range names {
		if id, ok := strings.CutSuffix(name, "/meta.json"); ok && !strings.Contains(id, "/") {
			ids = append(ids, id)
		}
	}
	// Deterministic ordinal assignment across restarts.
	sort.Strings(ids)

	m := &Store{
		opts:     opts,
		shards:   make(map[string]*shard.Shard),
		ordinals: make(map[string]uint32),
		logger:   opts.logger,
		metrics:  opts.metrics,
		res:      resource.NewController(opts.resource),
	}

	for _, id := range ids {
		sh, err := shard.Load(ctx, id, m.shardConfig())
		if err != nil {
			return nil, err
		}
		if m.dim == 0 {
			m.dim = sh.Dimension()
		}
		m.registerLocked(sh)
	}

	return m, nil
}

func buildOptions(optFns []Option) options {
	opts := applyOptions(optFns)
	if opts.store == nil && opts.localPath != "" {
		opts.store = blobstore.NewLocalStore(opts.localPath)
	}
	return opts
}

func (m *Store) shardConfig() shard.Config {
	return shard.Config{
		Store:                m.opts.store,
		Codec:                m.opts.codec,
		Logger:               m.logger.Logger,
		CompressionThreshold: m.opts.compressionThreshold,
		MinCompressItems:     m.opts.minCompressItems,
		MaxLinks:             m.opts.maxLinks,
		LinkFloor:            m.opts.linkFloor,
		TemporalMaxAge:       m.opts.temporalMaxAge,
	}
}

// registerLocked adds a shard to the registry and assigns its ordinal.
// Registry write lock must be held (or the store not yet shared).
func (m *Store) registerLocked(sh *shard.Shard) {
	m.shards[sh.ID()] = sh
	m.ordinals[sh.ID()] = uint32(len(m.order))
	m.order = append(m.order, sh.ID())
}

// Dimension returns the embedding dimension the store was created with.
func (m *Store) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dim
}

// ShardCount returns the number of shards in the store.
func (m *Store) ShardCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shards)
}

// Insert routes the item to the shard whose centroid is most similar to
// its embedding and stores it there, discovering semantic links along the
// way. Returns the stored item with defaults applied.
//
// If the chosen shard is saturated (utilization above 0.95) a fresh shard
// is created while the shard ceiling allows; at the ceiling, routing
// falls back to the most similar shard still below saturation and fails
// with ErrCapacityExhausted when every shard is full.
func (m *Store) Insert(ctx context.Context, item *model.Item) (*model.Item, error) {
	start := time.Now()
	stored, shardID, err := m.insert(ctx, item)
	err = translateError(err)
	m.metrics.RecordInsert(time.Since(start), err)

	itemID := ""
	if stored != nil {
		itemID = stored.ID
	}
	m.logger.LogInsert(ctx, shardID, itemID, err)
	return stored, err
}

func (m *Store) insert(ctx context.Context, item *model.Item) (*model.Item, string, error) {
	if len(item.Embedding) != m.dim {
		return nil, "", &ErrDimensionMismatch{Expected: m.dim, Actual: len(item.Embedding)}
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, "", ErrClosed
	}
	target, err := m.routeLocked(ctx, item.Embedding)
	others := m.othersLocked(target)
	m.mu.Unlock()
	if err != nil {
		return nil, "", err
	}

	// Link discovery runs before the insert so the new item's embedding,
	// not the shifted centroid, drives candidate similarity.
	m.discoverLinks(ctx, target, others, item.Embedding)

	stored, err := target.AddItem(ctx, item)
	if err != nil {
		return nil, "", err
	}
	return stored, target.ID(), nil
}

// routeLocked picks (or creates) the insertion shard. Registry write lock
// must be held.
func (m *Store) routeLocked(ctx context.Context, embedding []float32) (*shard.Shard, error) {
	if len(m.shards) == 0 {
		return m.createShardLocked(ctx), nil
	}

	best := m.mostSimilarLocked(embedding, false)
	if best == nil {
		// No shard has a centroid yet: fall back to the least utilized.
		best = m.leastUtilizedLocked()
	}

	if best.Utilization(m.opts.shardCapacity) <= saturationLimit {
		return best, nil
	}
	if len(m.shards) < m.opts.maxShards {
		return m.createShardLocked(ctx), nil
	}
	// Shard ceiling reached: most similar shard still below saturation.
	if best = m.mostSimilarLocked(embedding, true); best != nil {
		return best, nil
	}
	return nil, ErrCapacityExhausted
}

// mostSimilarLocked returns the shard whose centroid is most similar to
// the embedding, skipping shards without a centroid and, if underLimit is
// set, shards at or above the saturation limit. Ties break by ordinal so
// routing is deterministic.
func (m *Store) mostSimilarLocked(embedding []float32, underLimit bool) *shard.Shard {
	var best *shard.Shard
	bestSim := -1.0
	for _, id := range m.order {
		sh := m.shards[id]
		centroid := sh.Centroid()
		if centroid == nil {
			continue
		}
		if underLimit && sh.Utilization(m.opts.shardCapacity) > saturationLimit {
			continue
		}
		if sim := distance.Cosine(centroid, embedding); sim > bestSim {
			best, bestSim = sh, sim
		}
	}
	return best
}

func (m *Store) leastUtilizedLocked() *shard.Shard {
	var best *shard.Shard
	bestUtil := 0.0
	for _, id := range m.order {
		sh := m.shards[id]
		util := sh.Utilization(m.opts.shardCapacity)
		if best == nil || util < bestUtil {
			best, bestUtil = sh, util
		}
	}
	return best
}

func (m *Store) createShardLocked(ctx context.Context) *shard.Shard {
	sh := shard.New("tn-"+uuid.NewString(), m.dim, m.shardConfig())
	m.registerLocked(sh)
	m.logger.LogShardCreated(ctx, sh.ID(), len(m.shards))
	return sh
}

func (m *Store) othersLocked(target *shard.Shard) []*shard.Shard {
	if target == nil {
		return nil
	}
	others := make([]*shard.Shard, 0, len(m.order)-1)
	for _, id := range m.order {
		if id != target.ID() {
			others = append(others, m.shards[id])
		}
	}
	return others
}

// discoverLinks creates or refreshes bidirectional semantic links between
// the target shard and the most similar other shards, bounded by the link
// threshold and candidate count.
func (m *Store) discoverLinks(ctx context.Context, target *shard.Shard, others []*shard.Shard, embedding []float32) {
	type candidate struct {
		sh  *shard.Shard
		sim float64
	}

	candidates := make([]candidate, 0, len(others))
	for _, other := range others {
		centroid := other.Centroid()
		if centroid == nil {
			continue
		}
		if sim := distance.Cosine(centroid, embedding); sim >= m.opts.linkThreshold {
			candidates = append(candidates, candidate{sh: other, sim: sim})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].sh.ID() < candidates[j].sh.ID()
	})
	if len(candidates) > m.opts.linkCandidates {
		candidates = candidates[:m.opts.linkCandidates]
	}

	now := time.Now()
	for _, c := range candidates {
		target.LinkTo(ctx, c.sh.ID(), c.sim, now)
		c.sh.LinkTo(ctx, target.ID(), c.sim, now)
	}
}

// Shard returns the shard with the given id, if present. Intended for
// observability; mutating the shard directly bypasses routing.
func (m *Store) Shard(id string) (*shard.Shard, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sh, ok := m.shards[id]
	return sh, ok
}

// Close marks the store closed. All persistence is synchronous, so there
// is nothing to flush; subsequent operations fail with ErrClosed.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	return nil
}
