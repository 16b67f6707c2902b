package repository

import (
	"context"
	"encoding/json"
	"errors"
	"study_plan_backend/internal/util"
)

// KVStore 以字符串为键、JSON 为值的用户级持久化存储
type KVStore interface {
	// Get 键不存在时返回 util.ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Write 在一次原子操作中写入 sets 并删除 deletes
	Write(ctx context.Context, sets map[string][]byte, deletes []string) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// getJSON 读取并解码，键不存在时返回 found=false
func getJSON(ctx context.Context, store KVStore, key string, v any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, util.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, persistErr("get", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, persistErr("decode", key, err)
	}
	return true, nil
}
