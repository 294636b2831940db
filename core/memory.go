package core

import (
	"bytes"
	"slices"
	"sync"
	"time"
)

const memoryEngineName = "memory"

// MemoryStore is a volatile Engine backed by a map. It enforces the same
// limits and error semantics as KvStore and is used as the alternative
// backend and as a baseline in benchmarks.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Set(key, value []byte) error {
	defer observe(memoryEngineName, SetOperation, time.Now())

	if err := validate(key, value); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *MemoryStore) Get(key []byte) ([]byte, bool, error) {
	defer observe(memoryEngineName, GetOperation, time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrClosed
	}

	value, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}

	return bytes.Clone(value), true, nil
}

func (m *MemoryStore) Remove(key []byte) error {
	defer observe(memoryEngineName, RemoveOperation, time.Now())

	if len(key) > MaxKeySize {
		return ErrKeyTooLarge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, ok := m.data[string(key)]; !ok {
		return ErrKeyNotFound
	}

	delete(m.data, string(key))
	return nil
}

func (m *MemoryStore) Keys() ([][]byte, error) {
	defer observe(memoryEngineName, ScanOperation, time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	sorted := make([]string, 0, len(m.data))
	for k := range m.data {
		sorted = append(sorted, k)
	}
	slices.Sort(sorted)

	keys := make([][]byte, 0, len(m.data))
	for _, k := range sorted {
		keys = append(keys, []byte(k))
	}
	return keys, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

var _ Engine = (*MemoryStore)(nil)
