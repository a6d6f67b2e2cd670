// Package storage provides persistence backends for game records. Games are
// stored as JSON blobs keyed by game ID; callers get back an independent
// copy on every Load.
package storage

import (
	"context"
	"errors"

	"github.com/tilegames/rummikub-server/game/engine"
)

// ErrGameNotFound is returned when a game ID has no stored record.
var ErrGameNotFound = errors.New("game not found in storage")

// GameStore defines the interface for persisting games.
type GameStore interface {
	// Save persists a game, overwriting any existing record.
	Save(ctx context.Context, game *engine.Game) error

	// Load retrieves a game by ID. Returns ErrGameNotFound if absent.
	Load(ctx context.Context, id string) (*engine.Game, error)

	// Delete removes a game record. Deleting a missing game is not an error.
	Delete(ctx context.Context, id string) error

	// Exists reports whether a game record is present.
	Exists(ctx context.Context, id string) (bool, error)

	// ListIDs returns the IDs of all stored games.
	ListIDs(ctx context.Context) ([]string, error)
}
