package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix namespaces session records in Redis: rummikub:session:{token}.
const sessionKeyPrefix = "rummikub:session:"

// RedisPersistence stores sessions in Redis as JSON blobs.
type RedisPersistence struct {
	rdb *redis.Client
}

// NewRedisPersistence wraps an existing Redis client.
func NewRedisPersistence(rdb *redis.Client) *RedisPersistence {
	return &RedisPersistence{rdb: rdb}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (p *RedisPersistence) Save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := p.rdb.Set(ctx, sessionKey(session.Token), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (p *RedisPersistence) Load(ctx context.Context, token string) (*Session, error) {
	data, err := p.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (p *RedisPersistence) Delete(ctx context.Context, token string) error {
	if err := p.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (p *RedisPersistence) ListAll(ctx context.Context) ([]string, error) {
	var tokens []string
	iter := p.rdb.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		tokens = append(tokens, iter.Val()[len(sessionKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return tokens, nil
}

// MemoryPersistence is an in-process Persistence used in tests and when
// Redis is disabled but restart durability within the process is wanted.
type MemoryPersistence struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{sessions: make(map[string]*Session)}
}

func (p *MemoryPersistence) Save(_ context.Context, session *Session) error {
	copied := *session
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[session.Token] = &copied
	return nil
}

func (p *MemoryPersistence) Load(_ context.Context, token string) (*Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	session, ok := p.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (p *MemoryPersistence) Delete(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, token)
	return nil
}

func (p *MemoryPersistence) ListAll(_ context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tokens := make([]string, 0, len(p.sessions))
	for token := range p.sessions {
		tokens = append(tokens, token)
	}
	return tokens, nil
}
