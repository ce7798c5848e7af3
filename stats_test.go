package vecmesh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Stats_Empty(t *testing.T) {
	store, err := New(2)
	require.NoError(t, err)

	stats := store.Stats()
	assert.Zero(t, stats.ShardCount)
	assert.Zero(t, stats.ItemCount)
	assert.Zero(t, stats.AvgUtilization)
}

func TestStore_Stats_Aggregates(t *testing.T) {
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
	now := time.Now()
	shardA.LinkTo(ctx, shardB.ID(), 0.8, now)
	shardA.RecordCoAccess(ctx, shardB.ID(), 0.3, now)

	stats := store.Stats()
	assert.Equal(t, 2, stats.ShardCount)
	assert.Equal(t, 2, stats.ItemCount)
	assert.Greater(t, stats.AvgUtilization, 0.0)
	assert.Zero(t, stats.CompressionRate)
	assert.Equal(t, 1, stats.SemanticLinks)
	assert.Equal(t, 1, stats.TemporalLinks)
}
