package vecmesh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Search_InvalidArgs(t *testing.T) {
	store, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Search(ctx, []float32{1, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = store.Search(ctx, []float32{1}, 3)
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func TestStore_Search_EmptyStore(t *testing.T) {
	store, err := New(2)
	require.NoError(t, err)

	results, err := store.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Search_RanksBySimilarity(t *testing.T) {
	store, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Insert(ctx, newItem("east", 1, 0))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("north", 0, 1))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("northeast", 1, 1))
	require.NoError(t, err)

	results, err := store.Search(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "east", results[0].Item.ID)
	assert.Equal(t, "northeast", results[1].Item.ID)
	assert.Equal(t, ProvenanceTree, results[0].Provenance)
	assert.Equal(t, 1.0, results[0].Activation)
	assert.NotEmpty(t, results[0].ShardID)
}

func TestStore_Search_Deterministic(t *testing.T) {
	store, err := New(2, WithShardCapacity(tinyCapacity))
	require.NoError(t, err)
	ctx := context.Background()

	for _, e := range [][]float32{{1, 0}, {0, 1}, {0.7, 0.7}} {
		_, err := store.Insert(ctx, newItem("", e...))
		require.NoError(t, err)
	}

	first, err := store.Search(ctx, []float32{0.9, 0.3}, 3)
	require.NoError(t, err)
	second, err := store.Search(ctx, []float32{0.9, 0.3}, 3)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Item.ID, second[i].Item.ID)
		assert.Equal(t, first[i].ShardID, second[i].ShardID)
	}
}

func TestStore_Search_SpreadingActivation(t *testing.T) {
	store, err := New(2,
		WithShardCapacity(tinyCapacity),
		WithSeedFraction(0.5), // one seed at k=2 so the graph phase matters
	)
	require.NoError(t, err)
	ctx := context.Background()

	// 0.6 centroid similarity: below the discovery threshold, so the only
	// edge is the manual one below.
	_, err = store.Insert(ctx, newItem("a", 1, 0))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("b", 0.6, 0.8))
	require.NoError(t, err)
	require.Equal(t, 2, store.ShardCount())

	ids := store.shardIDs()
	seedShard, _ := store.Shard(ids[0])
	graphShard, _ := store.Shard(ids[1])

	// A strong manual edge: activation at depth 1 is 0.9*0.75 = 0.675.
	seedShard.LinkTo(ctx, graphShard.ID(), 0.9, time.Now())

	results, err := store.Search(ctx, []float32{1, 0.05}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[string]SearchResult{}
	for _, r := range results {
		byID[r.Item.ID] = r
	}

	require.Contains(t, byID, "a")
	require.Contains(t, byID, "b")
	assert.Equal(t, ProvenanceTree, byID["a"].Provenance)
	assert.Equal(t, 1.0, byID["a"].Activation)
	assert.Equal(t, ProvenanceGraph, byID["b"].Provenance)
	assert.InDelta(t, 0.675, byID["b"].Activation, 1e-9)
}

func TestStore_Search_ActivationFloorRejects(t *testing.T) {
	store, err := New(2,
		WithShardCapacity(tinyCapacity),
		WithSeedFraction(0.5),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Insert(ctx, newItem("a", 1, 0))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("b", 0.6, 0.8))
	require.NoError(t, err)

	ids := store.shardIDs()
	seedShard, _ := store.Shard(ids[0])
	graphShard, _ := store.Shard(ids[1])

	// Weak edge: 0.35*0.75 = 0.2625 activation; even at similarity 1 the
	// product stays below the 0.3 acceptance floor.
	seedShard.LinkTo(ctx, graphShard.ID(), 0.35, time.Now())

	results, err := store.Search(ctx, []float32{1, 0.05}, 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Item.ID)
}

func TestStore_Search_HybridTagAndBoost(t *testing.T) {
	store, err := New(2, WithShardCapacity(tinyCapacity))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Insert(ctx, newItem("a", 1, 0))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("b", 0.9, 0.4))
	require.NoError(t, err)

	ids := store.shardIDs()
	first, _ := store.Shard(ids[0])
	second, _ := store.Shard(ids[1])
	now := time.Now()
	first.LinkTo(ctx, second.ID(), 0.9, now)
	second.LinkTo(ctx, first.ID(), 0.9, now)

	// k=2 seeds both shards; the BFS then reaches each from the other,
	// upgrading both to hybrid.
	results, err := store.Search(ctx, []float32{1, 0.2}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, ProvenanceHybrid, r.Provenance)
		assert.Equal(t, 1.0, r.Activation)
	}
}

func TestStore_Search_CoAccessGraduation(t *testing.T) {
	store, err := New(2, WithShardCapacity(tinyCapacity))
	require.NoError(t, err)
	ctx := context.Background()

	// Orthogonal embeddings keep insert-time discovery out of the way.
	_, err = store.Insert(ctx, newItem("a", 1, 0))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newItem("b", 0, 1))
	require.NoError(t, err)
	require.Equal(t, 2, store.ShardCount())

	ids := store.shardIDs()
	shardA, _ := store.Shard(ids[0])
	shardB, _ := store.Shard(ids[1])

	for i := 0; i < 6; i++ {
		results, err := store.Search(ctx, []float32{1, 1}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2, "both shards must be returned on search %d", i+1)

		if i < 5 {
			_, ok := shardA.SemanticWeight(shardB.ID())
			assert.False(t, ok, "no graduation before the sixth co-access")
		}
	}

	assert.Equal(t, 6, shardA.TemporalCount(shardB.ID()))

	w, ok := shardA.SemanticWeight(shardB.ID())
	require.True(t, ok, "temporal link must graduate after the sixth co-access")
	assert.Equal(t, 0.6, w)

	w, ok = shardB.SemanticWeight(shardA.ID())
	require.True(t, ok)
	assert.Equal(t, 0.6, w)
}

func TestStore_Search_ResultsAreCopies(t *testing.T) {
	store, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Insert(ctx, newItem("a", 1, 0))
	require.NoError(t, err)

	results, err := store.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	results[0].Item.Embedding[0] = 99

	again, err := store.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(1), again[0].Item.Embedding[0])
}
