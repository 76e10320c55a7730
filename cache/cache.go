// Package cache persists compiled effects between runs.
package cache

import (
	"fmt"
	"sync"

	"github.com/quasilyte/gdata/v2"
)

const compiledObject = "compiled_effects"

// Store keeps compiled effects in the per-user application data directory.
type Store struct {
	manager *gdata.Manager
}

// Open creates a store under the data directory of appName.
func Open(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open effect cache %s: %w", appName, err)
	}
	return New(m), nil
}

func New(m *gdata.Manager) *Store {
	return &Store{manager: m}
}

func (s *Store) Load(key string) ([]byte, bool, error) {
	if !s.manager.ObjectPropExists(compiledObject, key) {
		return nil, false, nil
	}
	data, err := s.manager.LoadObjectProp(compiledObject, key)
	if err != nil {
		return nil, false, fmt.Errorf("load cached effect %s: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Store(key string, data []byte) error {
	if err := s.manager.SaveObjectProp(compiledObject, key, data); err != nil {
		return fmt.Errorf("save cached effect %s: %w", key, err)
	}
	return nil
}

// Backend is a slower cache a Memory can sit in front of.
type Backend interface {
	Load(key string) ([]byte, bool, error)
	Store(key string, data []byte) error
}

// Memory is an in-process cache, optionally backed by a persistent one.
type Memory struct {
	mu      sync.Mutex
	entries map[string][]byte
	next    Backend
	hits    int
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// NewMemoryOver returns a Memory that falls back to next on a miss and
// writes through to it.
func NewMemoryOver(next Backend) *Memory {
	m := NewMemory()
	m.next = next
	return m
}

func (m *Memory) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok && m.next != nil {
		var err error
		if data, ok, err = m.next.Load(key); err != nil {
			return nil, false, err
		}
		if ok {
			m.entries[key] = append([]byte(nil), data...)
		}
	}
	if !ok {
		return nil, false, nil
	}
	m.hits++
	return append([]byte(nil), data...), true, nil
}

func (m *Memory) Store(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]byte(nil), data...)
	if m.next != nil {
		return m.next.Store(key, data)
	}
	return nil
}

// Hits counts successful loads.
func (m *Memory) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
