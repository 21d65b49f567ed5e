package memory

// Package memory provides an in-process KVStore for development and tests.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/danxi/authgate/internal/ports"
)

// KVStore keeps JSON-encoded objects and strings in a map. Objects are stored encoded so
// readers never share memory with writers, matching the semantics of the remote stores.
type KVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ ports.KVStore = (*KVStore)(nil)

// NewKVStore creates an empty store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

func (s *KVStore) GetObject(_ context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *KVStore) SetObject(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *KVStore) GetString(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return "", false, nil
	}
	return string(raw), true, nil
}

func (s *KVStore) SetString(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = []byte(value)
	s.mu.Unlock()
	return nil
}

// Delete removes a key.
func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the raw stored values keyed by name.
func (s *KVStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = string(v)
	}
	return out
}
