package vecmesh

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecmesh/shard"
)

// MaintenanceTick runs one maintenance sweep across all shards: score
// decay and pruning, link decay, and compression of uncompressed shards
// whose utilization exceeds the compression trigger.
//
// Per-shard work runs concurrently, bounded by the resource controller's
// background worker limit; compression IO passes through its rate
// limiter. Failures on one shard are logged and never abort the sweep.
// The returned error is non-nil only on context cancellation.
func (m *Store) MaintenanceTick(ctx context.Context) error {
	start := time.Now()

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	shards := make([]*shard.Shard, 0, len(m.order))
	for _, id := range m.order {
		shards = append(shards, m.shards[id])
	}
	m.mu.RUnlock()

	lambda := shard.Lambda(m.opts.halfLife)
	var pruned, compressed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for _, sh := range shards {
		g.Go(func() error {
			if err := m.res.AcquireBackground(gctx); err != nil {
				return err
			}
			defer m.res.ReleaseBackground()

			now := time.Now()
			pruned.Add(int64(sh.PruneItems(gctx, now, lambda, m.opts.pruneThreshold)))
			sh.DecayLinks(gctx, now, m.opts.linkDecayRate)

			if m.opts.compressionEnabled && !sh.Compressed() &&
				sh.Utilization(m.opts.shardCapacity) > m.opts.compressionTrigger {
				if err := m.res.AcquireIO(gctx, int(sh.SizeEstimate())); err != nil {
					return err // context cancelled while throttled
				}
				if sh.Compress(gctx) {
					compressed.Add(1)
					m.metrics.RecordCompression(sh.CompressionRatio())
					m.logger.LogCompress(gctx, sh.ID(), sh.CompressionRatio())
				}
			}
			return nil
		})
	}
	err := g.Wait()

	m.metrics.RecordMaintenance(len(shards), int(pruned.Load()), time.Since(start))
	m.logger.LogMaintenance(ctx, len(shards), int(pruned.Load()), int(compressed.Load()))
	return err
}
