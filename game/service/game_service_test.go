package service

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilegames/rummikub-server/game/engine"
	"github.com/tilegames/rummikub-server/game/storage"
)

func newTestService() (GameService, storage.GameStore) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	store := storage.NewMemoryStore()
	return NewGameService(store, logger), store
}

func TestCreateGame(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	info, err := svc.CreateGame(ctx, 4)
	require.NoError(t, err)
	assert.NotEmpty(t, info.GameID)
	assert.Equal(t, engine.GameWaiting, info.Status)
	assert.Equal(t, 0, info.PlayerCount)
	assert.Equal(t, 4, info.MaxPlayers)

	// The game is persisted immediately.
	exists, err := store.Exists(ctx, info.GameID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateGame_InvalidMaxPlayers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateGame(ctx, 7)
	require.Error(t, err)
	assert.Equal(t, engine.KindInvalidAction, engine.KindOf(err))
}

func TestJoinGame(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)

	joinA, err := svc.JoinGame(ctx, info.GameID, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, joinA.PlayerID)
	assert.False(t, joinA.Rejoined)
	assert.Equal(t, engine.GameWaiting, joinA.Game.Status)

	joinB, err := svc.JoinGame(ctx, info.GameID, "bob")
	require.NoError(t, err)
	assert.Equal(t, engine.GameInProgress, joinB.Game.Status)
	assert.Equal(t, 2, joinB.Game.PlayerCount)
}

func TestJoinGame_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)

	_, err = svc.JoinGame(ctx, info.GameID, "")
	assert.Equal(t, engine.KindInvalidAction, engine.KindOf(err))

	_, err = svc.JoinGame(ctx, "missing", "alice")
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
	assert.EqualError(t, err, "game not found")
}

func TestJoinGame_Rejoin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)
	first, err := svc.JoinGame(ctx, info.GameID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, info.GameID, "bob")
	require.NoError(t, err)

	again, err := svc.JoinGame(ctx, info.GameID, "alice")
	require.NoError(t, err)
	assert.True(t, again.Rejoined)
	assert.Equal(t, first.PlayerID, again.PlayerID)
	assert.Equal(t, 2, again.Game.PlayerCount)
}

func TestPerformAction_Draw(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)
	alice, err := svc.JoinGame(ctx, info.GameID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, info.GameID, "bob")
	require.NoError(t, err)

	result, err := svc.PerformAction(ctx, info.GameID, alice.PlayerID, engine.Action{
		Type: engine.ActionDrawTile,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Tile drawn successfully", result.Message)

	// The drawn tile survives a reload through storage.
	state, err := svc.GameState(ctx, info.GameID, alice.PlayerID)
	require.NoError(t, err)
	assert.Len(t, state.YourTiles, engine.InitialHandSize+1)
	assert.False(t, state.CanPlay)
}

func TestPerformAction_RuleViolationIsNotAnError(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, info.GameID, "alice")
	require.NoError(t, err)
	bob, err := svc.JoinGame(ctx, info.GameID, "bob")
	require.NoError(t, err)

	// Bob acts out of turn.
	result, err := svc.PerformAction(ctx, info.GameID, bob.PlayerID, engine.Action{
		Type: engine.ActionDrawTile,
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, engine.KindNotYourTurn, result.Kind)
	assert.Equal(t, "not your turn", result.Message)
}

func TestPerformAction_UnknownGame(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.PerformAction(ctx, "missing", "p", engine.Action{Type: engine.ActionDrawTile})
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestPerformAction_RejectedActionNotPersisted(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)
	alice, err := svc.JoinGame(ctx, info.GameID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, info.GameID, "bob")
	require.NoError(t, err)

	before, err := store.Load(ctx, info.GameID)
	require.NoError(t, err)

	result, err := svc.PerformAction(ctx, info.GameID, alice.PlayerID, engine.Action{
		Type: "teleport",
	})
	require.NoError(t, err)
	require.False(t, result.Success)

	after, err := store.Load(ctx, info.GameID)
	require.NoError(t, err)
	assert.Equal(t, before.CurrentPlayerIndex, after.CurrentPlayerIndex)
	assert.Equal(t, len(before.Pool), len(after.Pool))
}

func TestPerformAction_ConcurrentDrawsSerialize(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)
	alice, err := svc.JoinGame(ctx, info.GameID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, info.GameID, "bob")
	require.NoError(t, err)

	// N racing draws by the current player: exactly one should win, since
	// after the winner the turn belongs to the other player.
	const attempts = 16
	var wg sync.WaitGroup
	results := make([]*ActionResult, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.PerformAction(ctx, info.GameID, alice.PlayerID, engine.Action{
				Type: engine.ActionDrawTile,
			})
			require.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, result := range results {
		if result.Success {
			succeeded++
		} else {
			assert.Equal(t, engine.KindNotYourTurn, result.Kind)
		}
	}
	assert.Equal(t, 1, succeeded)

	// Exactly one tile left the pool.
	game, err := store.Load(ctx, info.GameID)
	require.NoError(t, err)
	assert.Len(t, game.Pool, engine.PoolSize-2*engine.InitialHandSize-1)
}

func TestGameStateAndInfo(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)
	alice, err := svc.JoinGame(ctx, info.GameID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinGame(ctx, info.GameID, "bob")
	require.NoError(t, err)

	state, err := svc.GameState(ctx, info.GameID, alice.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, info.GameID, state.GameID)
	assert.True(t, state.CanPlay)
	assert.Len(t, state.YourTiles, engine.InitialHandSize)

	public, err := svc.GameInfo(ctx, info.GameID)
	require.NoError(t, err)
	assert.Equal(t, 2, public.PlayerCount)
	for _, p := range public.Players {
		assert.Equal(t, engine.InitialHandSize, p.TileCount)
	}

	_, err = svc.GameState(ctx, info.GameID, "stranger")
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestDeleteGame(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	info, err := svc.CreateGame(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteGame(ctx, info.GameID))

	exists, err := store.Exists(ctx, info.GameID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.GameInfo(ctx, info.GameID)
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}
