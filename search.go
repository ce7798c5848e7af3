package vecmesh

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecmesh/distance"
	"github.com/hupe1980/vecmesh/model"
	"github.com/hupe1980/vecmesh/shard"
)

// Provenance tags how a result's shard entered the candidate set.
type Provenance string

const (
	// ProvenanceTree marks shards found by direct centroid routing.
	ProvenanceTree Provenance = "tree"
	// ProvenanceGraph marks shards reached by spreading activation.
	ProvenanceGraph Provenance = "graph"
	// ProvenanceHybrid marks shards found by both phases.
	ProvenanceHybrid Provenance = "hybrid"
)

// SearchResult is a single ranked search result.
type SearchResult struct {
	// Item is the matching item (a copy; mutations do not affect the store).
	Item *model.Item
	// ShardID is the shard the item lives in.
	ShardID string
	// Similarity is the raw cosine similarity between query and item.
	Similarity float64
	// Activation is the shard's activation level: 1.0 for shards found by
	// centroid routing, the decayed spreading-activation value otherwise.
	Activation float64
	// Provenance says which search phase surfaced the shard.
	Provenance Provenance
}

// shardCandidate is a shard accepted into the query's candidate set.
type shardCandidate struct {
	sh         *shard.Shard
	sim        float64
	activation float64
	prov       Provenance
}

// Search answers a top-k query through the hybrid of vector routing and
// spreading activation.
//
// Centroid routing picks ceil(seedFraction*k) seed shards; a BFS over the
// link graph then spreads activation from them up to the hop budget, with
// each hop attenuated by the traversed edge weight and a flat geometric
// decay. Graph-discovered shards are accepted when similarity times
// activation clears the acceptance floor. Shards found by both phases are
// tagged hybrid and boosted. Items are drawn from the winning shards and
// ranked by raw cosine similarity.
//
// Side effect: every pair of shards in the returned set records a
// co-access, and temporal links past the graduation count become semantic
// links, so frequently co-retrieved shards grow structurally closer.
func (m *Store) Search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	start := time.Now()
	results, err := m.search(ctx, query, k)
	err = translateError(err)
	m.metrics.RecordSearch(k, time.Since(start), err)
	m.logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

func (m *Store) search(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(query) != m.dim {
		return nil, &ErrDimensionMismatch{Expected: m.dim, Actual: len(query)}
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	order := make([]string, len(m.order))
	copy(order, m.order)
	shards := make(map[string]*shard.Shard, len(m.shards))
	for id, sh := range m.shards {
		shards[id] = sh
	}
	ordinals := make(map[string]uint32, len(m.ordinals))
	for id, ord := range m.ordinals {
		ordinals[id] = ord
	}
	m.mu.RUnlock()

	candidates := m.collectShardCandidates(query, k, order, shards, ordinals)
	if len(candidates) == 0 {
		return nil, nil
	}

	// Rank shard candidates by score x sourceBoost x activation.
	sort.SliceStable(candidates, func(i, j int) bool {
		si := m.shardScore(candidates[i])
		sj := m.shardScore(candidates[j])
		if si != sj {
			return si > sj
		}
		return candidates[i].sh.ID() < candidates[j].sh.ID()
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := m.drawItems(ctx, query, k, candidates)
	m.reinforceCoAccess(ctx, results)
	return results, nil
}

func (m *Store) shardScore(c shardCandidate) float64 {
	boost := 1.0
	if c.prov == ProvenanceHybrid {
		boost = m.opts.hybridBoost
	}
	return c.sim * boost * c.activation
}

// collectShardCandidates runs both query phases and merges their shard
// sets.
func (m *Store) collectShardCandidates(query []float32, k int, order []string, shards map[string]*shard.Shard, ordinals map[string]uint32) []shardCandidate {
	type ranked struct {
		sh  *shard.Shard
		sim float64
	}

	// Phase 1: vector routing over shard centroids.
	all := make([]ranked, 0, len(order))
	for _, id := range order {
		sh := shards[id]
		centroid := sh.Centroid()
		if centroid == nil {
			continue
		}
		all = append(all, ranked{sh: sh, sim: distance.Cosine(centroid, query)})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].sim != all[j].sim {
			return all[i].sim > all[j].sim
		}
		return all[i].sh.ID() < all[j].sh.ID()
	})
	seedCount := int(math.Ceil(m.opts.seedFraction * float64(k)))
	if seedCount > len(all) {
		seedCount = len(all)
	}
	seeds := all[:seedCount]

	byID := make(map[string]*shardCandidate, len(seeds))
	visited := roaring.New()

	type frontierNode struct {
		sh         *shard.Shard
		activation float64
	}
	frontier := make([]frontierNode, 0, len(seeds))
	for _, s := range seeds {
		byID[s.sh.ID()] = &shardCandidate{sh: s.sh, sim: s.sim, activation: 1.0, prov: ProvenanceTree}
		visited.Add(ordinals[s.sh.ID()])
		frontier = append(frontier, frontierNode{sh: s.sh, activation: 1.0})
	}

	// Phase 2: spreading activation BFS over the link graph. Visited
	// shards are never re-expanded, but reaching a seed again upgrades it
	// to hybrid.
	for depth := 1; depth <= m.opts.hopBudget && len(frontier) > 0; depth++ {
		hopDecay := math.Pow(m.opts.hopDecay, float64(depth))
		var next []frontierNode
		for _, node := range frontier {
			for _, n := range node.sh.Neighbors(m.opts.linkFloor) {
				target, ok := shards[n.Target]
				if !ok {
					continue // dangling edge to a shard we do not know
				}
				act := node.activation * n.Weight * hopDecay

				ord := ordinals[n.Target]
				if visited.Contains(ord) {
					if c, seen := byID[n.Target]; seen && c.prov == ProvenanceTree {
						c.prov = ProvenanceHybrid
					}
					continue
				}
				visited.Add(ord)
				next = append(next, frontierNode{sh: target, activation: act})

				centroid := target.Centroid()
				if centroid == nil {
					continue
				}
				sim := distance.Cosine(centroid, query)
				if sim*act > m.opts.activationFloor {
					byID[n.Target] = &shardCandidate{sh: target, sim: sim, activation: act, prov: ProvenanceGraph}
				}
			}
		}
		frontier = next
	}

	out := make([]shardCandidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	return out
}

// drawItems pulls item-level hits from the winning shards and ranks them
// by raw similarity.
func (m *Store) drawItems(ctx context.Context, query []float32, k int, candidates []shardCandidate) []SearchResult {
	var results []SearchResult
	for _, c := range candidates {
		hits, err := c.sh.Search(ctx, query, k)
		if err != nil {
			// Dimension is validated up front; a per-shard failure here is
			// best-effort territory.
			m.logger.Warn("shard search failed", "shard", c.sh.ID(), "error", err)
			continue
		}
		for _, h := range hits {
			results = append(results, SearchResult{
				Item:       h.Item,
				ShardID:    c.sh.ID(),
				Similarity: h.Similarity,
				Activation: c.activation,
				Provenance: c.prov,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Item.ID < results[j].Item.ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// reinforceCoAccess records a co-access between every pair of shards in
// the returned set and graduates temporal links whose count passed the
// graduation threshold into semantic links.
func (m *Store) reinforceCoAccess(ctx context.Context, results []SearchResult) {
	ids := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, ok := seen[r.ShardID]; !ok {
			seen[r.ShardID] = struct{}{}
			ids = append(ids, r.ShardID)
		}
	}
	if len(ids) < 2 {
		return
	}

	m.mu.RLock()
	pairs := make([]*shard.Shard, 0, len(ids))
	for _, id := range ids {
		if sh, ok := m.shards[id]; ok {
			pairs = append(pairs, sh)
		}
	}
	m.mu.RUnlock()

	now := time.Now()
	for _, a := range pairs {
		for _, b := range pairs {
			if a.ID() == b.ID() {
				continue
			}
			count := a.RecordCoAccess(ctx, b.ID(), m.opts.temporalInitialWeight, now)
			if count > m.opts.graduationCount {
				a.LinkTo(ctx, b.ID(), m.opts.graduationWeight, now)
			}
		}
	}
}
