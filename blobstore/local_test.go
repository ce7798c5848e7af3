package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	data := []byte(`{"id":"item-1"}`)
	require.NoError(t, store.Put(ctx, "shard-a/meta.json", data))

	// Verify the file landed on disk.
	_, err := os.Stat(filepath.Join(tmpDir, "shard-a", "meta.json"))
	require.NoError(t, err)

	got, err := ReadAll(ctx, store, "shard-a/meta.json")
	require.NoError(t, err)
	require.Equal(t, data, got)

	// Put replaces atomically.
	require.NoError(t, store.Put(ctx, "shard-a/meta.json", []byte("x")))
	got, err = ReadAll(ctx, store, "shard-a/meta.json")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), got)

	require.NoError(t, store.Delete(ctx, "shard-a/meta.json"))
	_, err = store.Open(ctx, "shard-a/meta.json")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing blob is fine.
	require.NoError(t, store.Delete(ctx, "shard-a/meta.json"))
}

func TestLocalStore_Append(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, AppendTo(ctx, store, "shard-a/items.jsonl", []byte("{\"id\":\"1\"}\n")))
	require.NoError(t, AppendTo(ctx, store, "shard-a/items.jsonl", []byte("{\"id\":\"2\"}\n")))

	got, err := ReadAll(ctx, store, "shard-a/items.jsonl")
	require.NoError(t, err)
	require.Equal(t, "{\"id\":\"1\"}\n{\"id\":\"2\"}\n", string(got))
}

func TestLocalStore_List(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "shard-a/meta.json", []byte("a")))
	require.NoError(t, store.Put(ctx, "shard-a/links.json", []byte("b")))
	require.NoError(t, store.Put(ctx, "shard-b/meta.json", []byte("c")))

	names, err := store.List(ctx, "shard-a/")
	require.NoError(t, err)
	require.Equal(t, []string{"shard-a/links.json", "shard-a/meta.json"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestLocalStore_Create(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	w, err := store.Create(ctx, "snap.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)

	// Not visible until Close.
	_, err = store.Open(ctx, "snap.bin")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())

	got, err := ReadAll(ctx, store, "snap.bin")
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))
}
