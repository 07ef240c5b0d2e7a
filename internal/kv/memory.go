package kv

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Namespace used for development and tests when no backend is configured.
type Memory struct {
	mu   sync.RWMutex
	keys []string // sorted
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Insert(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[string(key)]; exists {
		return ErrKeyExists
	}
	m.set(string(key), value)
	return nil
}

func (m *Memory) Put(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(string(key), value)
	return nil
}

// set must be called with mu held for writing.
func (m *Memory) set(k string, value []byte) {
	if _, exists := m.data[k]; !exists {
		i := sort.SearchStrings(m.keys, k)
		m.keys = append(m.keys, "")
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = k
	}
	m.data[k] = append([]byte(nil), value...)
}

func (m *Memory) Scan(ctx context.Context, prefix []byte) ([]Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := sort.SearchStrings(m.keys, string(prefix))
	out := make([]Pair, 0)
	for _, k := range m.keys[start:] {
		if !bytes.HasPrefix([]byte(k), prefix) {
			break
		}
		out = append(out, Pair{Key: []byte(k), Value: append([]byte(nil), m.data[k]...)})
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
