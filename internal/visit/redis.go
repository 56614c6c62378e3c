package visit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// RedisStore keeps visits as JSON with a sliding expiry refreshed on every save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *RedisStore) Get(ctx context.Context, visitID string) (*Visit, error) {
	data, err := r.client.Get(ctx, visitKey(visitID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var v Visit
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal visit failed: %w", err)
	}

	return &v, nil
}

func (r *RedisStore) Save(ctx context.Context, visitID string, v *Visit) error {
	v.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal visit failed: %w", err)
	}

	if err := r.client.Set(ctx, visitKey(visitID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, visitID string) error {
	if err := r.client.Del(ctx, visitKey(visitID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func visitKey(visitID string) string {
	return fmt.Sprintf("visit:%s", visitID)
}
