package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultSessionPrefix namespaces session keys.
const DefaultSessionPrefix = "bookclub:session:"

// Store implements ports.StateStore using Redis.
//
// Each session is one JSON value under prefix+id. The prefix+"index" sorted set
// scores sessions by their last update, so List shows the most recently
// active signups first and idle ones age out with the TTL.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Store)

// WithTTL expires sessions that have not been updated for ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultSessionPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// activity is the index score of a state: its last update in milliseconds.
func (s *Store) activity(state *domain.FlowState) float64 {
	at := state.UpdatedAt
	if at.IsZero() {
		at = s.now()
	}
	return float64(at.UnixMilli())
}

// Save writes the state and moves the session to its place in the activity index.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.FlowState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.key(sessionID), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: s.activity(state), Member: sessionID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

// Load retrieves the state from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	switch {
	case errors.Is(err, backend.Nil):
		return nil, domain.ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var state domain.FlowState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Delete removes the session and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.ZRem(ctx, s.indexKey(), sessionID)
		return nil
	})
	return err
}

// List returns sessions, most recently updated first. With a TTL, entries idle
// for longer than it are pruned from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.ttl > 0 {
		cutoff := s.now().Add(-s.ttl).UnixMilli()
		if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+strconv.FormatInt(cutoff, 10)).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune idle sessions: %w", err)
		}
	}

	sessions, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// LastActivity reports when a session was last saved, from the index alone.
func (s *Store) LastActivity(ctx context.Context, sessionID string) (time.Time, error) {
	score, err := s.client.ZScore(ctx, s.indexKey(), sessionID).Result()
	switch {
	case errors.Is(err, backend.Nil):
		return time.Time{}, domain.ErrSessionNotFound
	case err != nil:
		return time.Time{}, fmt.Errorf("failed to read activity of %s: %w", sessionID, err)
	}
	return time.UnixMilli(int64(score)).UTC(), nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
