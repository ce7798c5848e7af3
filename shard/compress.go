package shard

import (
	"context"

	"github.com/hupe1980/vecmesh/distance"
	"github.com/hupe1980/vecmesh/model"
	"github.com/hupe1980/vecmesh/quantization"
)

// Compress converts the raw item set into quantized clusters.
//
// No-op when already compressed or when the shard holds fewer than
// MinCompressItems items (compression only pays off at scale); returns
// whether the shard ended up compressed. Items are grouped by greedy
// agglomeration: the two clusters whose centroids are most similar merge
// repeatedly while that similarity clears the compression threshold.
// Groups that fail the per-cluster quality gate fall back to singleton
// clusters, which always pass.
func (s *Shard) Compress(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.compressed || len(s.items) < s.cfg.MinCompressItems {
		return false
	}

	groups := agglomerate(s.items, s.cfg.CompressionThreshold)

	clusters := make([]model.CompressedCluster, 0, len(groups))
	for _, group := range groups {
		res := quantization.CompressCluster(group, s.cfg.CompressionThreshold)
		if res.Compressed {
			clusters = append(clusters, *res.Cluster)
			continue
		}
		// Quality gate refused the group: compress each member alone.
		for _, it := range group {
			single := quantization.CompressCluster([]*model.Item{it}, s.cfg.CompressionThreshold)
			if single.Compressed {
				clusters = append(clusters, *single.Cluster)
			}
		}
	}

	before := s.sizeEstimate
	var after int64
	if s.persist != nil {
		after = s.persist.writeClusters(ctx, clusters)
		s.persist.deleteLog(ctx)
	} else {
		after = encodedSize(s.cfg.Codec, clusters)
	}

	s.clusters = clusters
	s.items = nil
	s.compressed = true
	s.sizeEstimate = after
	if after > 0 {
		s.ratio = float64(before) / float64(after)
	}

	if s.persist != nil {
		s.persist.writeMeta(ctx, s.metaLocked())
	}
	return true
}

// Decompress restores the raw item set from the compressed clusters.
// No-op if the shard is not compressed.
func (s *Shard) Decompress(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.compressed {
		s.decompressLocked(ctx)
	}
}

// decompressLocked expands every cluster back into raw items and swaps
// persistence authority back to the item log. Write lock must be held.
func (s *Shard) decompressLocked(ctx context.Context) {
	var items []*model.Item
	for i := range s.clusters {
		items = append(items, quantization.DecompressCluster(&s.clusters[i])...)
	}

	s.items = items
	s.clusters = nil
	s.compressed = false
	s.recomputeCentroidLocked()

	if s.persist != nil {
		s.sizeEstimate = s.persist.writeItems(ctx, s.items)
		s.persist.deleteClusters(ctx)
		s.persist.writeMeta(ctx, s.metaLocked())
	} else {
		s.sizeEstimate = 0
		for _, it := range s.items {
			s.sizeEstimate += encodedSize(s.cfg.Codec, it) + 1
		}
	}
}

// agglomerate groups items by iterative greedy agglomeration on centroid
// cosine similarity. Merging stops when no pair of cluster centroids
// clears the threshold.
func agglomerate(items []*model.Item, threshold float64) [][]*model.Item {
	groups := make([][]*model.Item, len(items))
	centroids := make([][]float32, len(items))
	for i, it := range items {
		groups[i] = []*model.Item{it}
		centroids[i] = it.Embedding
	}

	for len(groups) > 1 {
		bestI, bestJ := -1, -1
		bestSim := threshold
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				if sim := distance.Cosine(centroids[i], centroids[j]); sim > bestSim {
					bestSim, bestI, bestJ = sim, i, j
				}
			}
		}
		if bestI < 0 {
			break
		}

		merged := append(groups[bestI], groups[bestJ]...)
		vectors := make([][]float32, len(merged))
		for i, it := range merged {
			vectors[i] = it.Embedding
		}

		groups[bestI] = merged
		centroids[bestI] = quantization.ComputeCentroid(vectors)
		groups = append(groups[:bestJ], groups[bestJ+1:]...)
		centroids = append(centroids[:bestJ], centroids[bestJ+1:]...)
	}

	return groups
}
