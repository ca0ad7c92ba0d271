package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when no session exists under the given ID,
// or when the record has already expired out of the store
var ErrSessionNotFound = errors.New("session not found")

// Store persists session records in Redis. Expiration is enforced by the
// TTL on the key; the store never returns an expired record.
type Store struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewStore creates a new session store with the given key prefix
func NewStore(client *redis.Client, prefix string, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *Store) key(id string) string {
	return s.prefix + ":" + id
}

// Load retrieves the record stored under the session ID
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		s.logger.Error("failed to load session", zap.Error(err), zap.String("sessionId", id))
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		// A corrupt blob is unusable; treat it the same as a missing session
		s.logger.Warn("discarding corrupt session record", zap.Error(err), zap.String("sessionId", id))
		return nil, ErrSessionNotFound
	}

	return rec, nil
}

// Save persists the record under the session ID with the given TTL
func (s *Store) Save(ctx context.Context, id string, rec *Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		s.logger.Error("failed to save session", zap.Error(err), zap.String("sessionId", id))
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Delete removes the record stored under the session ID. Deleting a session
// that does not exist is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		s.logger.Error("failed to delete session", zap.Error(err), zap.String("sessionId", id))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
