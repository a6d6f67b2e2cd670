package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tilegames/rummikub-server/game/engine"
	"github.com/tilegames/rummikub-server/game/storage"
)

// lockRegistry hands out one mutex per game ID. Locks are created lazily and
// kept for the life of the process; the registry mutex only guards the map.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[string]*sync.Mutex)}
}

func (r *lockRegistry) get(gameID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[gameID] = lock
	}
	return lock
}

func (r *lockRegistry) forget(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, gameID)
}

// gameServiceImpl implements the GameService interface.
//
// Every mutation holds the game's lock and reloads the authoritative record
// from storage before applying the change, so concurrent requests for the
// same game serialize and never act on a stale snapshot. The record is
// persisted only when the change succeeds.
type gameServiceImpl struct {
	store  storage.GameStore
	locks  *lockRegistry
	logger *logrus.Logger
}

// NewGameService creates a new game service instance.
func NewGameService(store storage.GameStore, logger *logrus.Logger) GameService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &gameServiceImpl{
		store:  store,
		locks:  newLockRegistry(),
		logger: logger,
	}
}

// CreateGame creates a new game and persists it.
func (s *gameServiceImpl) CreateGame(ctx context.Context, maxPlayers int) (*engine.GameInfo, error) {
	game, err := engine.NewGame(maxPlayers)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to persist new game: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"game_id":     game.ID,
		"max_players": maxPlayers,
	}).Info("Game created")

	return game.Info(), nil
}

// JoinGame adds a player to a game, or re-attaches an existing player when
// the game is already running.
func (s *gameServiceImpl) JoinGame(ctx context.Context, gameID, playerName string) (*JoinResult, error) {
	if playerName == "" {
		return nil, engine.NewInvalidAction("player name is required")
	}

	lock := s.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	rejoined := game.Status == engine.GameInProgress && game.PlayerByName(playerName) != nil

	player, err := game.Join(playerName)
	if err != nil {
		return nil, err
	}

	if !rejoined {
		if err := s.store.Save(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to persist game after join: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"game_id":  gameID,
		"player":   playerName,
		"rejoined": rejoined,
		"status":   game.Status,
	}).Info("Player joined game")

	return &JoinResult{
		Game:       game.Info(),
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Rejoined:   rejoined,
	}, nil
}

// DeleteGame removes a game record and its lock.
func (s *gameServiceImpl) DeleteGame(ctx context.Context, gameID string) error {
	lock := s.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Delete(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	s.locks.forget(gameID)

	s.logger.WithField("game_id", gameID).Info("Game deleted")
	return nil
}

// PerformAction applies a player action to a game. Rule violations come back
// as an unsuccessful ActionResult; only infrastructure failures are errors.
func (s *gameServiceImpl) PerformAction(ctx context.Context, gameID, playerID string, action engine.Action) (*ActionResult, error) {
	lock := s.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	outcome, err := game.Apply(playerID, action)
	if err != nil {
		if engine.IsRuleError(err) {
			s.logger.WithFields(logrus.Fields{
				"game_id": gameID,
				"player":  playerID,
				"action":  action.Type,
				"kind":    engine.KindOf(err),
			}).Debug("Action rejected")
			return &ActionResult{
				Success: false,
				Message: err.Error(),
				Kind:    engine.KindOf(err),
			}, nil
		}
		return nil, err
	}

	if err := s.store.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to persist game after action: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"game_id": gameID,
		"player":  playerID,
		"action":  action.Type,
		"won":     outcome.Won,
	}).Info("Action applied")

	return &ActionResult{
		Success:    true,
		Message:    outcome.Message,
		Won:        outcome.Won,
		GameStatus: game.Status,
		Game:       game.Info(),
	}, nil
}

// GameState returns the game from one player's point of view. Reads do not
// take the game lock; they see the latest persisted record.
func (s *gameServiceImpl) GameState(ctx context.Context, gameID, playerID string) (*engine.PlayerState, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return game.StateFor(playerID)
}

// GameInfo returns the public projection of a game.
func (s *gameServiceImpl) GameInfo(ctx context.Context, gameID string) (*engine.GameInfo, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return game.Info(), nil
}

func (s *gameServiceImpl) loadGame(ctx context.Context, gameID string) (*engine.Game, error) {
	game, err := s.store.Load(ctx, gameID)
	if err == storage.ErrGameNotFound {
		return nil, engine.NewNotFound("game not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return game, nil
}
