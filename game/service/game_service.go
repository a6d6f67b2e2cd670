package service

import (
	"context"

	"github.com/tilegames/rummikub-server/game/engine"
)

// GameService defines all game-related operations exposed to the transports.
type GameService interface {
	// Game Lifecycle
	CreateGame(ctx context.Context, maxPlayers int) (*engine.GameInfo, error)
	JoinGame(ctx context.Context, gameID, playerName string) (*JoinResult, error)
	DeleteGame(ctx context.Context, gameID string) error

	// Gameplay
	PerformAction(ctx context.Context, gameID, playerID string, action engine.Action) (*ActionResult, error)

	// Game State
	GameState(ctx context.Context, gameID, playerID string) (*engine.PlayerState, error)
	GameInfo(ctx context.Context, gameID string) (*engine.GameInfo, error)
}
