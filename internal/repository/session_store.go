package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/domain/checkout"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
)

const sessionKeyPrefix = "checkout:session:"

// RedisSessionStore keeps checkout sessions in Redis with TTL-based expiry,
// so an abandoned payment window cleans itself up.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a RedisSessionStore.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Put saves the session with the given time-to-live.
func (s *RedisSessionStore) Put(ctx context.Context, session *checkout.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkout session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*checkout.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.NewNotFoundError("CheckoutSession", id.String())
		}
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}
	var session checkout.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}
	return &session, nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete checkout session: %w", err)
	}
	return nil
}
