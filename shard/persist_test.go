package shard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecmesh/blobstore"
	"github.com/hupe1980/vecmesh/codec"
)

func TestShard_LoadRoundTrip(t *testing.T) {
	store := blobstore.NewMemoryStore()
	cfg := Config{Store: store}
	ctx := context.Background()
	now := time.Now()

	s := New("tn-1", 2, cfg)
	_, err := s.AddItem(ctx, item("a", 1, 0))
	require.NoError(t, err)
	_, err = s.AddItem(ctx, item("b", 0, 1))
	require.NoError(t, err)
	s.LinkTo(ctx, "tn-2", 0.8, now)
	s.RecordCoAccess(ctx, "tn-3", 0.3, now)
	s.SetParent(ctx, "tn-root")
	s.AddChild(ctx, "tn-leaf")

	loaded, err := Load(ctx, "tn-1", cfg)
	require.NoError(t, err)

	assert.Equal(t, "tn-1", loaded.ID())
	assert.Equal(t, 2, loaded.Dimension())
	assert.Equal(t, 2, loaded.ItemCount())
	assert.Equal(t, s.Centroid(), loaded.Centroid())
	assert.Equal(t, s.SizeEstimate(), loaded.SizeEstimate())
	assert.InDelta(t, s.Energy(), loaded.Energy(), 1e-9)
	assert.False(t, loaded.Compressed())

	w, ok := loaded.SemanticWeight("tn-2")
	require.True(t, ok)
	assert.Equal(t, 0.8, w)
	assert.Equal(t, 1, loaded.TemporalCount("tn-3"))

	neighbors := loaded.Neighbors(0.5)
	targets := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		targets = append(targets, n.Target)
	}
	assert.Contains(t, targets, "tn-root")
	assert.Contains(t, targets, "tn-leaf")

	hits, err := loaded.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Item.ID)
}

func TestShard_LoadRoundTrip_Compressed(t *testing.T) {
	store := blobstore.NewMemoryStore()
	cfg := Config{Store: store}
	ctx := context.Background()

	base := []float32{1, 0.05}
	s := New("tn-1", 2, cfg)
	fillSimilar(t, s, base, 12)
	require.True(t, s.Compress(ctx))

	loaded, err := Load(ctx, "tn-1", cfg)
	require.NoError(t, err)

	assert.True(t, loaded.Compressed())
	assert.Equal(t, 12, loaded.ItemCount())
	assert.Equal(t, s.CompressionRatio(), loaded.CompressionRatio())

	hits, err := loaded.Search(ctx, base, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.True(t, hits[0].Item.Reconstructed)
}

func TestShard_LoadRoundTrip_LocalStore(t *testing.T) {
	store := blobstore.NewLocalStore(t.TempDir())
	cfg := Config{Store: store}
	ctx := context.Background()

	s := New("tn-1", 3, cfg)
	_, err := s.AddItem(ctx, item("a", 1, 2, 3))
	require.NoError(t, err)

	loaded, err := Load(ctx, "tn-1", cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ItemCount())
	assert.Equal(t, []float32{1, 2, 3}, loaded.Centroid())
}

func TestShard_Load_CodecFromMeta(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	s := New("tn-1", 2, Config{Store: store, Codec: codec.GoJSON{}})
	_, err := s.AddItem(ctx, item("a", 1, 0))
	require.NoError(t, err)

	raw, err := blobstore.ReadAll(ctx, store, "tn-1/meta.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"codec":"go-json"`)

	// A reader configured with the other built-in codec follows the name
	// stamped in meta.json for the remaining documents.
	loaded, err := Load(ctx, "tn-1", Config{Store: store, Codec: codec.JSON{}})
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ItemCount())

	hits, err := loaded.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Item.ID)
}

func TestShard_Load_MissingMeta(t *testing.T) {
	_, err := Load(context.Background(), "nope", Config{Store: blobstore.NewMemoryStore()})
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestShard_Load_NoStore(t *testing.T) {
	_, err := Load(context.Background(), "tn-1", Config{})
	require.ErrorIs(t, err, errNoStore)
}

func TestShard_Load_SkipsTornLogLine(t *testing.T) {
	store := blobstore.NewMemoryStore()
	cfg := Config{Store: store}
	ctx := context.Background()

	s := New("tn-1", 2, cfg)
	_, err := s.AddItem(ctx, item("a", 1, 0))
	require.NoError(t, err)

	// Simulate a torn tail write on the item log.
	require.NoError(t, blobstore.AppendTo(ctx, store, "tn-1/items.jsonl", []byte(`{"id":"b","emb`)))

	loaded, err := Load(ctx, "tn-1", cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ItemCount())
}
