package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
)

// Provider é a capacidade de identidade injetada no workflow: o registro de
// usuário da sessão, gravado no login e apagado no logout.
type Provider interface {
	Current(ctx context.Context, sessionID string) (upstream.User, bool, error)
	SignIn(ctx context.Context, sessionID string, u upstream.User) error
	SignOut(ctx context.Context, sessionID string) error
}

// RedisStore guarda o registro de usuário por sessão no Redis com TTL.
type RedisStore struct {
	R   *redis.Client
	TTL time.Duration
}

func NewRedisStore(r *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{R: r, TTL: ttl}
}

func key(sessionID string) string { return "session:user:" + sessionID }

func (s *RedisStore) Current(ctx context.Context, sessionID string) (upstream.User, bool, error) {
	b, err := s.R.Get(ctx, key(sessionID)).Bytes()
	if err == redis.Nil {
		return upstream.User{}, false, nil
	}
	if err != nil {
		return upstream.User{}, false, err
	}
	var u upstream.User
	if err := json.Unmarshal(b, &u); err != nil {
		return upstream.User{}, false, err
	}
	return u, true, nil
}

func (s *RedisStore) SignIn(ctx context.Context, sessionID string, u upstream.User) error {
	b, _ := json.Marshal(u)
	return s.R.Set(ctx, key(sessionID), b, s.TTL).Err()
}

func (s *RedisStore) SignOut(ctx context.Context, sessionID string) error {
	return s.R.Del(ctx, key(sessionID)).Err()
}

// MemoryStore é o Provider em memória usado nos testes.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]upstream.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]upstream.User)}
}

func (s *MemoryStore) Current(_ context.Context, sessionID string) (upstream.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[sessionID]
	return u, ok, nil
}

func (s *MemoryStore) SignIn(_ context.Context, sessionID string, u upstream.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[sessionID] = u
	return nil
}

func (s *MemoryStore) SignOut(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, sessionID)
	return nil
}
