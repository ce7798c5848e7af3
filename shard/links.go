package shard

import (
	"context"
	"time"

	"github.com/hupe1980/vecmesh/model"
)

// hierarchicalWeight is the fixed traversal weight of parent/child edges.
const hierarchicalWeight = 0.5

// LinkTo creates or refreshes an outgoing semantic link. An existing link
// has its weight replaced (never lowered) and its table entry refreshed.
//
// The semantic table is bounded by MaxLinks: when full, a new link only
// enters by evicting the current weakest link if it is weaker.
func (s *Shard) LinkTo(ctx context.Context, target string, weight float64, now time.Time) {
	if target == s.id {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if link, ok := s.semantic[target]; ok {
		if weight > link.Weight {
			link.Weight = clamp01(weight)
		}
		link.UpdatedAt = now
		s.persistLinksLocked(ctx)
		return
	}

	if len(s.semantic) >= s.cfg.MaxLinks {
		weakest := ""
		weakestWeight := weight
		for t, link := range s.semantic {
			if link.Weight < weakestWeight {
				weakest, weakestWeight = t, link.Weight
			}
		}
		if weakest == "" {
			return // table full of stronger links
		}
		delete(s.semantic, weakest)
	}

	s.semantic[target] = &model.SemanticLink{
		Target:    target,
		Weight:    clamp01(weight),
		UpdatedAt: now,
	}
	s.persistLinksLocked(ctx)
}

// StrengthenLink reinforces an existing semantic link by boost (capped at
// 1.0) and bumps its activation counter. No-op if the link does not
// exist.
func (s *Shard) StrengthenLink(ctx context.Context, target string, boost float64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.semantic[target]
	if !ok {
		return
	}
	link.Weight = clamp01(link.Weight + boost)
	link.Activations++
	link.UpdatedAt = now
	s.persistLinksLocked(ctx)
}

// RecordCoAccess increments the temporal link towards target, creating it
// at initialWeight if absent, and returns the new co-access count.
func (s *Shard) RecordCoAccess(ctx context.Context, target string, initialWeight float64, now time.Time) int {
	if target == s.id {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.temporal[target]
	if !ok {
		link = &model.TemporalLink{
			Target: target,
			Weight: initialWeight,
		}
		s.temporal[target] = link
	}
	link.Count++
	link.LastCoAccess = now
	s.persistLinksLocked(ctx)
	return link.Count
}

// SemanticWeight returns the weight of the semantic link to target, or 0
// if absent.
func (s *Shard) SemanticWeight(target string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.semantic[target]
	if !ok {
		return 0, false
	}
	return link.Weight, true
}

// TemporalCount returns the co-access count towards target.
func (s *Shard) TemporalCount(target string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if link, ok := s.temporal[target]; ok {
		return link.Count
	}
	return 0
}

// SetParent records the hierarchical parent edge.
func (s *Shard) SetParent(ctx context.Context, parent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parent = parent
	s.persistLinksLocked(ctx)
}

// AddChild records a hierarchical child edge.
func (s *Shard) AddChild(ctx context.Context, child string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[child] = struct{}{}
	s.persistLinksLocked(ctx)
}

// Neighbors returns the adjacency view graph traversal consumes: semantic
// links at or above minWeight, temporal links with more than two
// co-accesses, and hierarchical edges at their fixed weight.
func (s *Shard) Neighbors(minWeight float64) []model.Neighbor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	neighbors := make([]model.Neighbor, 0, len(s.semantic)+len(s.temporal))
	for _, link := range s.semantic {
		if link.Weight >= minWeight {
			neighbors = append(neighbors, model.Neighbor{
				Target: link.Target,
				Weight: link.Weight,
				Kind:   model.LinkSemantic,
			})
		}
	}
	for _, link := range s.temporal {
		if link.Count > 2 {
			neighbors = append(neighbors, model.Neighbor{
				Target: link.Target,
				Weight: link.Weight,
				Kind:   model.LinkTemporal,
			})
		}
	}
	if s.parent != "" {
		neighbors = append(neighbors, model.Neighbor{
			Target: s.parent,
			Weight: hierarchicalWeight,
			Kind:   model.LinkHierarchical,
		})
	}
	for child := range s.children {
		neighbors = append(neighbors, model.Neighbor{
			Target: child,
			Weight: hierarchicalWeight,
			Kind:   model.LinkHierarchical,
		})
	}
	return neighbors
}

// LinkCounts returns the semantic and temporal link counts.
func (s *Shard) LinkCounts() (semantic, temporal int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.semantic), len(s.temporal)
}

func (s *Shard) persistLinksLocked(ctx context.Context) {
	if s.persist != nil {
		s.persist.writeLinks(ctx, s.linkTableLocked())
	}
}
