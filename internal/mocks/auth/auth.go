package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danxi/authgate/internal/adapters/memory"
	"github.com/danxi/authgate/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Transport           = (*ScriptedTransport)(nil)
	_ ports.KVStore             = (*FlakyStore)(nil)
	_ ports.DisplayNameResolver = StaticNameResolver{}
)

// Reply is one scripted transport result.
type Reply struct {
	Response ports.Response
	Err      error
}

// ScriptedTransport answers requests with a fixed sequence of replies and records what it was sent.
type ScriptedTransport struct {
	mu       sync.Mutex
	replies  []Reply
	requests []ports.Request
}

// NewScriptedTransport creates a transport that returns replies in order.
func NewScriptedTransport(replies ...Reply) *ScriptedTransport {
	return &ScriptedTransport{replies: replies}
}

func (s *ScriptedTransport) Do(_ context.Context, req ports.Request) (ports.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return ports.Response{}, fmt.Errorf("unexpected request %s %s", req.Method, req.URL)
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Response, r.Err
}

// Requests returns a copy of the requests seen so far.
func (s *ScriptedTransport) Requests() []ports.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Request(nil), s.requests...)
}

// ErrInjected is returned by FlakyStore for keys configured to fail.
var ErrInjected = errors.New("injected store failure")

// FlakyStore is an in-memory KVStore whose writes fail for selected keys.
type FlakyStore struct {
	*memory.KVStore
	FailWrites map[string]bool
	Writes     []string
}

// NewFlakyStore creates a store that fails writes to the given keys.
func NewFlakyStore(failKeys ...string) *FlakyStore {
	fail := make(map[string]bool, len(failKeys))
	for _, k := range failKeys {
		fail[k] = true
	}
	return &FlakyStore{KVStore: memory.NewKVStore(), FailWrites: fail}
}

func (f *FlakyStore) SetObject(ctx context.Context, key string, value any) error {
	f.Writes = append(f.Writes, key)
	if f.FailWrites[key] {
		return ErrInjected
	}
	return f.KVStore.SetObject(ctx, key, value)
}

func (f *FlakyStore) SetString(ctx context.Context, key, value string) error {
	f.Writes = append(f.Writes, key)
	if f.FailWrites[key] {
		return ErrInjected
	}
	return f.KVStore.SetString(ctx, key, value)
}

// StaticNameResolver always resolves to Name, or fails with Err.
type StaticNameResolver struct {
	Name string
	Err  error
}

func (r StaticNameResolver) Resolve(context.Context, string, []string) (string, error) {
	return r.Name, r.Err
}
