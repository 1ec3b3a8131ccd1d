package oauth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStateNotFound is returned when a state value is unknown, expired or already used.
var ErrStateNotFound = errors.New("oauth: state not found")

// PendingAuthorization is what a state value is bound to between the
// redirect to the provider and the callback.
type PendingAuthorization struct {
	SessionID   string    `json:"session_id"`
	Integration string    `json:"integration"`
	RedirectURI string    `json:"redirect_uri"`
	Scopes      []string  `json:"scopes"`
	CreatedAt   time.Time `json:"created_at"`
}

// StateStore keeps pending authorizations. Consume removes the entry so
// each state verifies at most once.
type StateStore interface {
	Save(ctx context.Context, state string, p PendingAuthorization) error
	Consume(ctx context.Context, state string) (*PendingAuthorization, error)
}

// VerifyState consumes state and checks it was issued to sessionID.
// Any failure is reported as invalid_state.
func VerifyState(ctx context.Context, store StateStore, state, sessionID string) (*PendingAuthorization, error) {
	if state == "" {
		return nil, &AuthError{Reason: ReasonInvalidState, Err: errors.New("missing state parameter")}
	}
	p, err := store.Consume(ctx, state)
	if err != nil {
		return nil, &AuthError{Reason: ReasonInvalidState, Err: err}
	}
	if subtle.ConstantTimeCompare([]byte(p.SessionID), []byte(sessionID)) != 1 {
		return nil, &AuthError{Reason: ReasonInvalidState, Err: errors.New("state issued to another session")}
	}
	return p, nil
}

// MemoryStateStore is a process-local StateStore.
type MemoryStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	pending   PendingAuthorization
	expiresAt time.Time
}

// NewMemoryStateStore creates an in-memory store whose entries live for ttl.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	return &MemoryStateStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Save stores p under state and sweeps expired entries.
func (s *MemoryStateStore) Save(_ context.Context, state string, p PendingAuthorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[state] = memoryEntry{pending: p, expiresAt: now.Add(s.ttl)}
	return nil
}

// Consume returns and deletes the entry for state.
func (s *MemoryStateStore) Consume(_ context.Context, state string) (*PendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return nil, ErrStateNotFound
	}
	delete(s.entries, state)
	if !s.now().Before(e.expiresAt) {
		return nil, ErrStateNotFound
	}
	p := e.pending
	return &p, nil
}

// RedisStateStore shares pending authorizations across instances. Only the
// state binding is stored, never token material.
type RedisStateStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStateStore creates a Redis-backed store. Keys are "<prefix>:oauth_state:<state>".
func NewRedisStateStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStateStore) key(state string) string {
	if s.prefix == "" {
		return "oauth_state:" + state
	}
	return s.prefix + ":oauth_state:" + state
}

// Save stores p with the configured TTL.
func (s *RedisStateStore) Save(ctx context.Context, state string, p PendingAuthorization) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending authorization: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the entry.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (*PendingAuthorization, error) {
	data, err := s.client.GetDel(ctx, s.key(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}

	var p PendingAuthorization
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal pending authorization: %w", err)
	}
	return &p, nil
}
