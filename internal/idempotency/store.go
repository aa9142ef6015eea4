// Package idempotency replays the first response of a mutating request when
// a client retries it with the same Idempotency-Key.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"

	keyPrefix = "pool-party:idem:"
)

// Record is what is kept per key.
type Record struct {
	Status      string `json:"status"`
	Fingerprint string `json:"fingerprint"`
	Code        int    `json:"code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Store reserves keys and keeps completed responses.
type Store interface {
	// Reserve claims key for a new request. When the key is already taken
	// the existing record is returned and nothing is written.
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*Record, error)
	Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// RedisStore keeps records as JSON strings with a TTL.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (*Record, error) {
	pending, err := json.Marshal(Record{Status: StatusPending, Fingerprint: fingerprint})
	if err != nil {
		return nil, err
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+key, pending, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("idempotency: reserve: %w", err)
	}
	if ok {
		return nil, nil
	}
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Reserve(ctx, key, fingerprint, ttl)
	}
	if err != nil {
		return nil, fmt.Errorf("idempotency: load: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("idempotency: decode: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	rec.Status = StatusCompleted
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency: complete: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("idempotency: release: %w", err)
	}
	return nil
}
