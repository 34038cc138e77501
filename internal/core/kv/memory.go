package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process KV with the same JSON round-trip and not-found
// behaviour as the sqlite store.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
}

var _ KV = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: map[string][]byte{}}
}

func (m *Memory) Get(_ context.Context, key string, dest any) error {
	data, ok := m.Raw(key)
	if !ok {
		return fmt.Errorf("kv get %q: %w", key, ErrNotFound)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("kv get %q: unmarshal: %w", key, err)
	}
	return nil
}

func (m *Memory) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q: marshal: %w", key, err)
	}
	m.SetRaw(key, data)
	return nil
}

// SetRaw stores bytes verbatim, bypassing JSON encoding.
func (m *Memory) SetRaw(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), data...)
}

// Raw returns the stored bytes for key.
func (m *Memory) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.values[key]
	return data, ok
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	_, ok := m.Raw(key)
	return ok, nil
}
