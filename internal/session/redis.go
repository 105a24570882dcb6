package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
)

const keyPrefix = "satoru:admin:session:"

// RedisStore keeps session records in Redis with a TTL. Every save resets
// the TTL, so active sessions slide forward.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return keyPrefix + id
}

// Save writes the record and resets its TTL.
func (s *RedisStore) Save(ctx context.Context, record *Record) error {
	record.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", record.ID, err)
	}
	return nil
}

// Get fetches a record by session ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NotFound("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &record, nil
}

// Delete removes a record. Deleting an absent session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Ping checks Redis connectivity. Used as a readiness check.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
