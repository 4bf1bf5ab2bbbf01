package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultHashKey = "streamguard:settings"

// RedisConfig configures the redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// HashKey overrides the hash the settings live under.
	HashKey string
}

// RedisStore persists settings in a single redis hash, one field per key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("settings: connect to redis: %w", err)
	}

	key := cfg.HashKey
	if key == "" {
		key = defaultHashKey
	}
	return &RedisStore{client: client, key: key}, nil
}

// Get reads the full hash. An absent hash yields an empty map so defaults
// apply downstream.
func (s *RedisStore) Get(ctx context.Context) (map[string]string, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("settings: read: %w", err)
	}
	return raw, nil
}

// Set merges partial into the hash.
func (s *RedisStore) Set(ctx context.Context, partial map[string]string) error {
	if len(partial) == 0 {
		return nil
	}
	fields := make(map[string]any, len(partial))
	for k, v := range partial {
		fields[k] = v
	}
	if err := s.client.HSet(ctx, s.key, fields).Err(); err != nil {
		return fmt.Errorf("settings: write: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
