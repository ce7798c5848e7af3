package vecmesh

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecmesh/blobstore"
	"github.com/hupe1980/vecmesh/model"
	"github.com/hupe1980/vecmesh/resource"
	"github.com/hupe1980/vecmesh/testutil"
)

func TestStore_MaintenanceTick_CompressesHotShards(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	store, err := New(8,
		WithBlobStore(blobstore.NewMemoryStore()),
		WithCompressionTrigger(0), // any utilization qualifies
		WithMetricsCollector(metrics),
		WithResourceConfig(resource.Config{MaxBackgroundWorkers: 2}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	rng := testutil.NewRNG(21)
	base := rng.Vector(8)
	for i := 0; i < 12; i++ {
		_, err := store.Insert(ctx, newItem(fmt.Sprintf("item-%02d", i), rng.Near(base, 0.01)...))
		require.NoError(t, err)
	}
	require.Equal(t, 1, store.ShardCount())

	require.NoError(t, store.MaintenanceTick(ctx))

	sh, _ := store.Shard(store.shardIDs()[0])
	assert.True(t, sh.Compressed())
	assert.Equal(t, 12, sh.ItemCount())
	assert.Equal(t, 1.0, store.Stats().CompressionRate)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.MaintenanceCount)
	assert.Equal(t, int64(1), stats.CompressionCount)
	assert.Greater(t, stats.AvgCompression, 1.0)
}

func TestStore_MaintenanceTick_CompressionDisabled(t *testing.T) {
	store, err := New(8,
		WithCompressionTrigger(0),
		WithCompression(false),
	)
	require.NoError(t, err)
	ctx := context.Background()

	rng := testutil.NewRNG(22)
	base := rng.Vector(8)
	for i := 0; i < 12; i++ {
		_, err := store.Insert(ctx, newItem("", rng.Near(base, 0.01)...))
		require.NoError(t, err)
	}

	require.NoError(t, store.MaintenanceTick(ctx))

	sh, _ := store.Shard(store.shardIDs()[0])
	assert.False(t, sh.Compressed())
}

func TestStore_MaintenanceTick_PrunesDecayedItems(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	store, err := New(2,
		WithHalfLife(time.Hour),
		WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now()

	_, err = store.Insert(ctx, newItem("fresh", 1, 0))
	require.NoError(t, err)

	stale := &model.Item{ID: "stale", Embedding: []float32{0, 1}, LastAccessAt: now.Add(-100 * time.Hour)}
	_, err = store.Insert(ctx, stale)
	require.NoError(t, err)

	require.NoError(t, store.MaintenanceTick(ctx))

	assert.Equal(t, 1, store.Stats().ItemCount)
	assert.Equal(t, int64(1), metrics.GetStats().PrunedItems)
}

func TestStore_MaintenanceTick_DecaysLinks(t *testing.T) {
	store, err := New(2, WithShardCapacity(tinyCapacity))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Insert(ctx, newItem("a", 1, 0))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("b", 0, 1))
	require.NoError(t, err)

	ids := store.shardIDs()
	shardA, _ := store.Shard(ids[0])
	shardB, _ := store.Shard(ids[1])
	shardA.LinkTo(ctx, shardB.ID(), 0.5, time.Now())
	shardA.LinkTo(ctx, "tn-gone", 0.06, time.Now())

	require.NoError(t, store.MaintenanceTick(ctx))

	w, ok := shardA.SemanticWeight(shardB.ID())
	require.True(t, ok)
	assert.InDelta(t, 0.48, w, 1e-9)

	_, ok = shardA.SemanticWeight("tn-gone")
	assert.False(t, ok, "decayed below floor must be dropped")
}

func TestStore_MaintenanceTick_SingleWorkerCoversAllShards(t *testing.T) {
	store, err := New(2,
		WithShardCapacity(tinyCapacity),
		WithResourceConfig(resource.Config{MaxBackgroundWorkers: 1}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Insert(ctx, newItem("a", 1, 0))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("b", 0, 1))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("c", -1, 0))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("d", 0, -1))
	require.NoError(t, err)
	require.Equal(t, 4, store.ShardCount())

	now := time.Now()
	ids := store.shardIDs()
	for i, id := range ids {
		sh, _ := store.Shard(id)
		sh.LinkTo(ctx, ids[(i+1)%len(ids)], 0.5, now)
	}

	// All per-shard sweeps pass through the one background slot.
	require.NoError(t, store.MaintenanceTick(ctx))

	for i, id := range ids {
		sh, _ := store.Shard(id)
		w, ok := sh.SemanticWeight(ids[(i+1)%len(ids)])
		require.True(t, ok)
		assert.InDelta(t, 0.48, w, 1e-9)
	}
}

func TestStore_MaintenanceTick_CompressScenario(t *testing.T) {
	dim := 32
	store, err := New(dim,
		WithBlobStore(blobstore.NewMemoryStore()),
		WithCompressionTrigger(0),
		WithMinCompressItems(5),
	)
	require.NoError(t, err)
	ctx := context.Background()

	// Three near-identical items plus two unrelated ones, all in the one
	// shard via first-shard fallback.
	rng := testutil.NewRNG(23)
	base := rng.Vector(dim)
	embeddings := [][]float32{
		rng.Near(base, 0.01),
		rng.Near(base, 0.01),
		rng.Near(base, 0.01),
		rng.Vector(dim),
		rng.Vector(dim),
	}
	for i, e := range embeddings {
		_, err := store.Insert(ctx, newItem(fmt.Sprintf("item-%d", i), e...))
		require.NoError(t, err)
	}
	require.Equal(t, 1, store.ShardCount())

	sh, _ := store.Shard(store.shardIDs()[0])
	before := sh.SizeEstimate()

	require.NoError(t, store.MaintenanceTick(ctx))

	assert.True(t, sh.Compressed())
	assert.Equal(t, 5, sh.ItemCount())
	assert.Less(t, sh.SizeEstimate(), before, "serialized size must shrink")
	assert.Greater(t, sh.CompressionRatio(), 1.0)
}
