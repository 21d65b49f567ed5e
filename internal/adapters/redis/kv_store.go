package redis

// Package redis provides the Redis-backed session store.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danxi/authgate/internal/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key this store writes.
const DefaultKeyPrefix = "authgate:"

// KVStore persists session state in Redis. Values never expire; a later login overwrites them.
type KVStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.KVStore = (*KVStore)(nil)

// NewKVStore creates a store using DefaultKeyPrefix.
func NewKVStore(client redis.UniversalClient) *KVStore {
	return NewKVStoreWithPrefix(client, DefaultKeyPrefix)
}

// NewKVStoreWithPrefix creates a store with a custom key prefix. An empty prefix is allowed.
func NewKVStoreWithPrefix(client redis.UniversalClient, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

func (s *KVStore) key(k string) string { return s.prefix + k }

func (s *KVStore) GetObject(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := s.get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if unmarshalErr := json.Unmarshal([]byte(raw), dst); unmarshalErr != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, unmarshalErr)
	}
	return true, nil
}

func (s *KVStore) SetObject(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *KVStore) GetString(ctx context.Context, key string) (string, bool, error) {
	return s.get(ctx, key)
}

func (s *KVStore) SetString(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *KVStore) get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}
