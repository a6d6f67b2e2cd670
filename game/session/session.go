// Package session manages player session tokens. A session binds a bearer
// token to one player in one game; the API layer resolves tokens through
// the Manager on every authenticated request.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid session token")
)

// Session identifies one player within one game.
type Session struct {
	Token          string    `json:"token"`
	GameID         string    `json:"game_id"`
	PlayerID       string    `json:"player_id"`
	PlayerName     string    `json:"player_name"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// Persistence defines the interface for persisting sessions across restarts.
type Persistence interface {
	// Save persists a session to storage
	Save(ctx context.Context, session *Session) error

	// Load retrieves a session from storage by token
	Load(ctx context.Context, token string) (*Session, error)

	// Delete removes a session from storage
	Delete(ctx context.Context, token string) error

	// ListAll returns all persisted session tokens
	ListAll(ctx context.Context) ([]string, error)
}
