package shard

import (
	"context"
	"math"
	"time"

	"github.com/hupe1980/vecmesh/model"
)

// Lambda converts a half-life into the exponential decay constant used by
// PruneItems: ln(2)/halfLife, so an item untouched for exactly one
// half-life ends up at half its score.
func Lambda(halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 0
	}
	return math.Ln2 / halfLife.Seconds()
}

// PruneItems applies exponential score decay and drops items that fall
// below threshold.
//
// newScore = score * exp(-lambda * secondsSinceLastAccess). Surviving
// items keep the decayed score. The persisted item log is rewritten when
// anything changed, and the shard pays the flat maintenance energy cost.
// Returns the number of items dropped.
func (s *Shard) PruneItems(ctx context.Context, now time.Time, lambda, threshold float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	changed := false

	if s.compressed {
		for ci := range s.clusters {
			kept := s.clusters[ci].Items[:0]
			for _, it := range s.clusters[ci].Items {
				score := decayScore(it.Score, lambda, now.Sub(it.LastAccessAt))
				if score < threshold {
					removed++
					changed = true
					continue
				}
				if score != it.Score {
					changed = true
				}
				it.Score = score
				kept = append(kept, it)
			}
			s.clusters[ci].Items = kept
		}
		// Drop clusters emptied by pruning.
		keptClusters := s.clusters[:0]
		for _, c := range s.clusters {
			if len(c.Items) > 0 {
				keptClusters = append(keptClusters, c)
			}
		}
		s.clusters = keptClusters
	} else {
		kept := s.items[:0]
		for _, it := range s.items {
			score := decayScore(it.Score, lambda, now.Sub(it.LastAccessAt))
			if score < threshold {
				removed++
				changed = true
				continue
			}
			if score != it.Score {
				changed = true
			}
			it.Score = score
			kept = append(kept, it)
		}
		s.items = kept
		if removed > 0 {
			s.recomputeCentroidLocked()
		}
	}

	s.energy = clamp01(s.energy - energyMaintCost)

	if s.persist != nil && changed {
		if s.compressed {
			s.sizeEstimate = s.persist.writeClusters(ctx, s.clusters)
		} else {
			s.sizeEstimate = s.persist.writeItems(ctx, s.items)
		}
	}
	if s.persist != nil {
		s.persist.writeMeta(ctx, s.metaLocked())
	}
	return removed
}

func decayScore(score, lambda float64, elapsed time.Duration) float64 {
	if lambda <= 0 || elapsed <= 0 {
		return score
	}
	return score * math.Exp(-lambda*elapsed.Seconds())
}

// DecayLinks weakens every semantic link by rate and drops links that
// fall below the link floor, plus temporal links unused for longer than
// the configured age ceiling. Each side of a bidirectional link decays
// independently, so the graph may drift asymmetric over time.
//
// Returns whether anything changed; the link table is persisted only
// then.
func (s *Shard) DecayLinks(ctx context.Context, now time.Time, rate float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for target, link := range s.semantic {
		link.Weight -= rate
		changed = true
		if link.Weight < s.cfg.LinkFloor {
			delete(s.semantic, target)
		}
	}
	for target, link := range s.temporal {
		if now.Sub(link.LastCoAccess) > s.cfg.TemporalMaxAge {
			delete(s.temporal, target)
			changed = true
		}
	}

	if changed && s.persist != nil {
		s.persist.writeLinks(ctx, s.linkTableLocked())
	}
	return changed
}

func (s *Shard) linkTableLocked() model.LinkTable {
	table := model.LinkTable{
		Parent: s.parent,
	}
	for _, link := range s.semantic {
		table.Semantic = append(table.Semantic, *link)
	}
	for _, link := range s.temporal {
		table.Temporal = append(table.Temporal, *link)
	}
	for child := range s.children {
		table.Children = append(table.Children, child)
	}
	return table
}
