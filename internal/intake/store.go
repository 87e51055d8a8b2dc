package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var storeTracer = otel.Tracer("internal/intake/store")

// ErrSessionNotFound means the token matched no live session (never issued,
// expired, or already completed and reaped).
var ErrSessionNotFound = errors.New("intake: session not found")

// SessionStore persists conversation state between turns, keyed by token.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

const sessionKeyPrefix = "intake_session:"

// RedisSessionStore keeps sessions in Redis with a sliding TTL, so an
// abandoned conversation expires on its own.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore wires the store. ttl must be positive.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	ctx, span := storeTracer.Start(ctx, "session.Save", trace.WithAttributes(
		attribute.String("session.phase", string(s.Phase)),
	))
	defer span.End()

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("intake: encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.Token), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("intake: save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Load(ctx context.Context, token string) (*Session, error) {
	ctx, span := storeTracer.Start(ctx, "session.Load")
	defer span.End()

	payload, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("intake: load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("intake: decode session: %w", err)
	}
	// Sliding expiry: touching a session keeps it alive.
	if err := r.client.Expire(ctx, sessionKey(token), r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("intake: refresh session ttl: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("intake: delete session: %w", err)
	}
	return nil
}

// MemorySessionStore is an in-process store for tests and local runs.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-process store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("intake: encode session: %w", err)
	}
	var copied Session
	if err := json.Unmarshal(payload, &copied); err != nil {
		return fmt.Errorf("intake: decode session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = &copied
	return nil
}

func (m *MemorySessionStore) Load(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
