package repository

import (
	"context"
	"errors"
	"study_plan_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

type RedisKVStore struct {
	Client *redis.Client
}

func NewRedisKVStore(rdb *redis.Client) *RedisKVStore {
	return &RedisKVStore{Client: rdb}
}

func (s *RedisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrNotFound
	}
	return raw, err
}

func (s *RedisKVStore) Set(ctx context.Context, key string, value []byte) error {
	return s.Client.Set(ctx, key, value, 0).Err()
}

// Write 使用 MULTI/EXEC 保证多键写入的原子性
func (s *RedisKVStore) Write(ctx context.Context, sets map[string][]byte, deletes []string) error {
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range sets {
			pipe.Set(ctx, k, v, 0)
		}
		if len(deletes) > 0 {
			pipe.Del(ctx, deletes...)
		}
		return nil
	})
	return err
}

func (s *RedisKVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.Client.Del(ctx, keys...).Err()
}

func (s *RedisKVStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
