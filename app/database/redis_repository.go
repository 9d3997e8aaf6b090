package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps the SeenSet as members of a single Redis set.
type RedisRepository struct {
	client *redis.Client
	key    string
}

func NewRedisRepository(ctx context.Context, addr, key string) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Debug("Connected to Redis", "addr", addr, "key", key)

	return &RedisRepository{client: client, key: key}, nil
}

func (r *RedisRepository) Load(ctx context.Context) (SeenSet, error) {
	members, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read set %s: %w", r.key, err)
	}

	return NewSeenSet(members...), nil
}

func (r *RedisRepository) Save(ctx context.Context, seen SeenSet) error {
	if seen.Len() == 0 {
		return nil
	}

	keys := seen.Keys()
	members := make([]interface{}, len(keys))
	for i, key := range keys {
		members[i] = key
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, r.key, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write set %s: %w", r.key, err)
	}

	return nil
}

func (r *RedisRepository) Backend() Backend {
	return BackendRedis
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
