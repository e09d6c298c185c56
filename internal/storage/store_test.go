package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/studentdesk/internal/config"
)

// exerciseStore runs the contract every Store implementation must honor.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "session"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := s.Set(ctx, "session", "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "session", "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := s.Get(ctx, "session")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "second" {
		t.Errorf("expected overwritten value, got %q", got)
	}

	if err := s.Delete(ctx, "session"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "session"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting twice is harmless.
	if err := s.Delete(ctx, "session"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestMemory_Contract(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestBolt_Contract(t *testing.T) {
	b, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	exerciseStore(t, b)
}

func TestBolt_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	b, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := b.Set(ctx, "redirectEndpoint", "/students/42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	b.Close()

	b, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()

	got, err := b.Get(ctx, "redirectEndpoint")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "/students/42" {
		t.Errorf("expected persisted value, got %q", got)
	}
}

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "studentdesk:", ttl), mr
}

func TestRedis_Contract(t *testing.T) {
	r, _ := newTestRedis(t, time.Hour)
	exerciseStore(t, r)
}

func TestRedis_ScopeIsolatesVisitors(t *testing.T) {
	r, mr := newTestRedis(t, time.Hour)
	ctx := context.Background()

	alice := r.Scope("alice")
	bob := r.Scope("bob")

	if err := alice.Set(ctx, "session", "alice-data"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := bob.Get(ctx, "session"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected bob to see nothing, got %v", err)
	}
	if !mr.Exists("studentdesk:visitor:alice:session") {
		t.Error("expected namespaced key in redis")
	}
}

func TestRedis_WritesRefreshTTL(t *testing.T) {
	r, mr := newTestRedis(t, time.Minute)
	ctx := context.Background()

	if err := r.Set(ctx, "session", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := r.Get(ctx, "session"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected key to expire, got %v", err)
	}
}

func TestRedis_ConnectionFailure(t *testing.T) {
	r, mr := newTestRedis(t, time.Minute)
	mr.Close()

	_, err := r.Get(context.Background(), "session")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a connection error, got %v", err)
	}
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := DialRedis(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := NewRedis(client, "", 0).Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed: %v", err)
	}
}

func TestDialRedis_BadURL(t *testing.T) {
	if _, err := DialRedis(context.Background(), config.RedisConfig{URL: "not a url"}); err == nil {
		t.Fatal("expected an error for a malformed URL")
	}
}

func TestMemory_ScopeIsolatesVisitors(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Scope("alice").Set(ctx, "session", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := mem.Scope("bob").Get(ctx, "session"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected bob to see nothing, got %v", err)
	}
	if _, err := mem.Get(ctx, "visitor:alice:session"); err != nil {
		t.Errorf("expected namespaced key, got %v", err)
	}
}

func TestRedis_SetWithTTLOverridesStoreTTL(t *testing.T) {
	r, mr := newTestRedis(t, 720*time.Hour)
	ctx := context.Background()

	if err := SetWithTTL(ctx, r.Scope("v1"), "redirectEndpoint", "/students", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("studentdesk:visitor:v1:redirectEndpoint"); ttl != time.Minute {
		t.Errorf("expected a one minute TTL, got %s", ttl)
	}
}

func TestMemory_SetWithTTLExpires(t *testing.T) {
	mem := NewMemory()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }
	ctx := context.Background()

	if err := SetWithTTL(ctx, mem.Scope("v1"), "redirectEndpoint", "/students", time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := mem.Set(ctx, "session", "kept"); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := mem.Scope("v1").Get(ctx, "redirectEndpoint"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired key to read as missing, got %v", err)
	}
	if mem.Len() != 1 {
		t.Errorf("expected only the unexpiring key to count, got %d", mem.Len())
	}
}

func TestSetWithTTL_FallsBackToSet(t *testing.T) {
	b, err := OpenBolt(filepath.Join(t.TempDir(), "ttl.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := SetWithTTL(context.Background(), b, "redirectEndpoint", "/students", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := b.Get(context.Background(), "redirectEndpoint"); err != nil || got != "/students" {
		t.Errorf("expected plain write, got %q, %v", got, err)
	}
}
