package storage

import (
	"context"
	"sync"
	"time"
)

// memoryEntry is one stored value. A zero expires never expires.
type memoryEntry struct {
	value   string
	expires time.Time
}

// Memory is an in-process Store. Used in tests and by the development server
// when no Redis URL is configured. Contents are lost on restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
	now    func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]memoryEntry), now: time.Now}
}

// Get returns the value for key or ErrNotFound. Expired keys read as missing.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.values[key]
	if !ok || m.expired(e) {
		return "", ErrNotFound
	}
	return e.value, nil
}

// Set stores value under key, replacing any prior value.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = memoryEntry{value: value}
	m.mu.Unlock()
	return nil
}

// SetWithTTL stores value under key until ttl has passed. Expired keys are
// dropped on the next write.
func (m *Memory) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.values {
		if m.expired(e) {
			delete(m.values, k)
		}
	}
	m.values[key] = memoryEntry{value: value, expires: m.now().Add(ttl)}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Scope returns the namespace for one visitor.
func (m *Memory) Scope(visitorID string) Store {
	return Prefixed(m, visitorPrefix(visitorID))
}

// Len reports how many unexpired keys are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.values {
		if !m.expired(e) {
			n++
		}
	}
	return n
}

func (m *Memory) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// Prefixed wraps a Store so every key is stored under prefix. The web
// frontend uses it to give each visitor a private namespace on a shared store.
func Prefixed(s Store, prefix string) Store {
	return &prefixed{inner: s, prefix: prefix}
}

type prefixed struct {
	inner  Store
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return SetWithTTL(ctx, p.inner, p.prefix+key, value, ttl)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}
