package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// tokenBytes yields 32 hex characters per token.
const tokenBytes = 16

// Manager handles session lifecycle: token issuance, lookup and expiry.
type Manager struct {
	sessions    map[string]*Session
	persistence Persistence
	logger      *logrus.Logger
	mu          sync.RWMutex
}

// NewManager creates a session manager without persistence.
func NewManager(logger *logrus.Logger) *Manager {
	return NewManagerWithPersistence(logger, nil)
}

// NewManagerWithPersistence creates a session manager that mirrors sessions
// into the given persistence backend.
func NewManagerWithPersistence(logger *logrus.Logger, persistence Persistence) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		persistence: persistence,
		logger:      logger,
	}
}

// Create issues a fresh session for a player in a game.
func (m *Manager) Create(ctx context.Context, gameID, playerID, playerName string) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &Session{
		Token:          token,
		GameID:         gameID,
		PlayerID:       playerID,
		PlayerName:     playerName,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.mu.Lock()
	m.sessions[token] = session
	m.mu.Unlock()

	if m.persistence != nil {
		if err := m.persistence.Save(ctx, session); err != nil {
			m.logger.WithError(err).WithField("game_id", gameID).
				Warn("Failed to persist session")
		}
	}

	return session, nil
}

// Get resolves a token to its session, refreshing the last-accessed time.
// Unknown tokens fall through to persistence before failing.
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	m.mu.Lock()
	session, exists := m.sessions[token]
	if exists {
		session.LastAccessedAt = time.Now().UTC()
	}
	m.mu.Unlock()

	if exists {
		return session, nil
	}

	if m.persistence != nil {
		session, err := m.persistence.Load(ctx, token)
		if err == nil {
			session.LastAccessedAt = time.Now().UTC()
			m.mu.Lock()
			m.sessions[token] = session
			m.mu.Unlock()
			return session, nil
		}
		if err != ErrSessionNotFound {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}
	}

	return nil, ErrSessionNotFound
}

// Delete removes a session from memory and persistence.
func (m *Manager) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	_, inMemory := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if m.persistence != nil {
		if err := m.persistence.Delete(ctx, token); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// Count returns the number of in-memory sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired removes sessions idle for longer than maxAge and returns
// how many were dropped.
func (m *Manager) CleanupExpired(ctx context.Context, maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	m.mu.Lock()
	var expired []string
	for token, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, token)
			expired = append(expired, token)
		}
	}
	m.mu.Unlock()

	if m.persistence != nil {
		for _, token := range expired {
			if err := m.persistence.Delete(ctx, token); err != nil {
				m.logger.WithError(err).Warn("Failed to delete expired session")
			}
		}
	}

	return len(expired)
}

// LoadPersisted warms the in-memory map from persistence at startup.
func (m *Manager) LoadPersisted(ctx context.Context) error {
	if m.persistence == nil {
		return nil
	}

	tokens, err := m.persistence.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loaded := 0
	for _, token := range tokens {
		m.mu.RLock()
		_, exists := m.sessions[token]
		m.mu.RUnlock()
		if exists {
			continue
		}

		session, err := m.persistence.Load(ctx, token)
		if err != nil {
			m.logger.WithError(err).Warn("Failed to load persisted session")
			continue
		}

		m.mu.Lock()
		m.sessions[token] = session
		m.mu.Unlock()
		loaded++
	}

	if loaded > 0 {
		m.logger.WithField("count", loaded).Info("Loaded persisted sessions")
	}
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
