package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var _ KV = (*RedisKV)(nil)

// RedisKV stores payloads as plain string values without expiry.
type RedisKV struct {
	logger *slog.Logger
	client redis.Cmdable
	prefix string
}

func NewRedisKV(client redis.Cmdable, prefix string, logger *slog.Logger) *RedisKV {
	return &RedisKV{logger: logger, client: client, prefix: prefix}
}

func (r *RedisKV) key(k string) string {
	return r.prefix + k
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("key %q: %w", key, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to read client state from redis", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("failed to read client state: %w", err)
	}
	return b, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write client state to redis", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to write client state: %w", err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete client state from redis", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to delete client state: %w", err)
	}
	return nil
}

// NewRedisClient opens a client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
