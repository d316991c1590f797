// Package cache provides Redis access helpers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fidelizapp/fideliza-backend/internal/common/config"
	"github.com/redis/go-redis/v9"
)

var rdb *redis.Client

// Init connects to Redis.
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb = redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	return rdb, nil
}

// SetClient replaces the global client. Used by tests.
func SetClient(client *redis.Client) {
	rdb = client
}

// GetClient returns the Redis client.
func GetClient() *redis.Client {
	return rdb
}

// Close closes the Redis connection.
func Close() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

// Set stores a JSON-encoded value.
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return rdb.Set(ctx, key, data, expiration).Err()
}

// Get loads a JSON-encoded value into dest.
func Get(ctx context.Context, key string, dest interface{}) error {
	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// GetString reads a string value.
func GetString(ctx context.Context, key string) (string, error) {
	return rdb.Get(ctx, key).Result()
}

// SetString stores a string value.
func SetString(ctx context.Context, key string, value string, expiration time.Duration) error {
	return rdb.Set(ctx, key, value, expiration).Err()
}

// Delete removes keys.
func Delete(ctx context.Context, keys ...string) error {
	return rdb.Del(ctx, keys...).Err()
}

// Exists reports whether a key exists.
func Exists(ctx context.Context, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Expire sets a key TTL.
func Expire(ctx context.Context, key string, expiration time.Duration) error {
	return rdb.Expire(ctx, key, expiration).Err()
}

// TTL returns the remaining TTL of a key.
func TTL(ctx context.Context, key string) (time.Duration, error) {
	return rdb.TTL(ctx, key).Result()
}

// Incr increments a counter.
func Incr(ctx context.Context, key string) (int64, error) {
	return rdb.Incr(ctx, key).Result()
}

// SetNX sets a key only when absent. Basis for simple locks.
func SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return rdb.SetNX(ctx, key, value, expiration).Result()
}

// Cache key prefixes.
const (
	KeyPrefixSession   = "session:"
	KeyPrefixFeature   = "feature:"
	KeyPrefixRateLimit = "ratelimit:"
	KeyPrefixLock      = "lock:"
	KeyPrefixStats     = "stats:"
)

// BuildKey joins a prefix with parts.
func BuildKey(prefix string, parts ...string) string {
	key := prefix
	for _, part := range parts {
		key += part + ":"
	}
	return key[:len(key)-1]
}
