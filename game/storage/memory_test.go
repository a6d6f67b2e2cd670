package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilegames/rummikub-server/game/engine"
)

func newStoredGame(t *testing.T) *engine.Game {
	t.Helper()
	g, err := engine.NewGame(2)
	require.NoError(t, err)
	_, err = g.Join("alice")
	require.NoError(t, err)
	return g
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	g := newStoredGame(t)

	require.NoError(t, store.Save(ctx, g))

	loaded, err := store.Load(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, loaded.ID)
	assert.Equal(t, engine.GameWaiting, loaded.Status)
	require.Len(t, loaded.Players, 1)
	assert.Equal(t, "alice", loaded.Players[0].Name)
	assert.Len(t, loaded.Players[0].Tiles, engine.InitialHandSize)
	assert.Len(t, loaded.Pool, engine.PoolSize-engine.InitialHandSize)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	g := newStoredGame(t)
	require.NoError(t, store.Save(ctx, g))

	first, err := store.Load(ctx, g.ID)
	require.NoError(t, err)
	first.Status = engine.GameFinished
	first.Players[0].Name = "mallory"

	second, err := store.Load(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.GameWaiting, second.Status)
	assert.Equal(t, "alice", second.Players[0].Name)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrGameNotFound)

	exists, err := store.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newStoredGame(t)
	b := newStoredGame(t)
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	ids, err := store.ListIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	require.NoError(t, store.Delete(ctx, a.ID))
	require.NoError(t, store.Delete(ctx, a.ID)) // deleting twice is fine

	exists, err := store.Exists(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	ids, err = store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)
}
