// Package storage provides the durable key/value storage a visitor's client
// state lives in: the serialized session and the pending redirect endpoint.
// The web frontend keeps one namespace per visitor in Redis, the CLI keeps a
// single bbolt file, and tests use the in-memory store.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string key/value store. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Expiring is implemented by stores that can give a single key its own
// lifetime instead of the store-wide one.
type Expiring interface {
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// SetWithTTL stores value under key for ttl when s supports per-key
// lifetimes, and with the store's default lifetime otherwise.
func SetWithTTL(ctx context.Context, s Store, key, value string, ttl time.Duration) error {
	if e, ok := s.(Expiring); ok {
		return e.SetWithTTL(ctx, key, value, ttl)
	}
	return s.Set(ctx, key, value)
}

// Scoper hands out a private namespace per visitor on a shared store.
type Scoper interface {
	Scope(visitorID string) Store
}

// visitorPrefix is the namespace of one visitor's keys.
func visitorPrefix(visitorID string) string {
	return "visitor:" + visitorID + ":"
}
