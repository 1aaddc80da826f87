package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"backend/internal/game"
)

const (
	// VersionKey tracks the global state version for efficient change
	// detection by the WebSocket hub.
	VersionKey = "global:version"
)

// RedisKV is the game KV store backed by Redis. Every game record is a
// JSON string under its own key; there is deliberately no cross-key
// atomicity, matching the store contract the engine is written against.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV creates a new Redis-backed KV store
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{
		client: client,
	}
}

// Get returns the raw JSON value under key, or an error wrapping
// game.ErrKeyNotFound when the key is absent.
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("%s: %w", key, game.ErrKeyNotFound)
		}
		return "", err
	}
	return value, nil
}

// Put stores the raw JSON value under key with no expiry.
func (r *RedisKV) Put(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Exists reports whether a key is present.
func (r *RedisKV) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// BumpVersion increments the global state version. Called after every
// successful purification so the hub can detect changes without diffing
// records.
func (r *RedisKV) BumpVersion(ctx context.Context) error {
	return r.client.Incr(ctx, VersionKey).Err()
}

// GetVersion returns the current global state version number
func (r *RedisKV) GetVersion(ctx context.Context) (int64, error) {
	version, err := r.client.Get(ctx, VersionKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil // Version not set yet, return 0
		}
		return 0, err
	}
	return version, nil
}

// PutMany stores several records in one pipeline. Used by the seeder and
// the init endpoint; the purify path writes keys individually.
func (r *RedisKV) PutMany(ctx context.Context, records map[string]string) error {
	pipe := r.client.Pipeline()
	for key, value := range records {
		pipe.Set(ctx, key, value, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Ping checks if Redis is reachable
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisKV) Close() error {
	return r.client.Close()
}
