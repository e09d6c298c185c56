// Package session is the Session Store: the authenticated identity of one
// visitor, persisted as a single sealed record in durable storage, plus the
// endpoint to resume after log-in. Workflows never write here; the page that
// ran a log-in or sign-up commits the result.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keyxmakerx/studentdesk/internal/storage"
)

// Fixed storage keys, one entry each.
const (
	sessionKey  = "session"
	redirectKey = "redirectEndpoint"
)

// PendingEndpointTTL bounds how long a remembered endpoint waits for a
// log-in.
const PendingEndpointTTL = 15 * time.Minute

// Session is the client-held record of an authenticated user.
type Session struct {
	IsAuthenticated bool      `json:"isAuthenticated"`
	Token           string    `json:"token"`
	UserID          string    `json:"userId"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	ExpiresAt       time.Time `json:"expiresAt,omitzero"`
}

// FullName joins first and last name for display.
func (s *Session) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Expired reports whether the bearer token's exp claim has passed. Tokens
// without a readable exp never expire on the client.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store reads and writes one visitor's session. It is cheap to construct;
// the web frontend builds one per request around the visitor's namespace.
type Store struct {
	backend storage.Store
	sealer  *Sealer
	now     func() time.Time
}

// NewStore creates a session store on top of backend.
func NewStore(backend storage.Store, sealer *Sealer) *Store {
	return &Store{backend: backend, sealer: sealer, now: time.Now}
}

// Current returns the stored session, or nil when there is none. Missing,
// corrupt, token-less and expired entries all read as absent; this never
// fails. Expired entries are removed.
func (s *Store) Current(ctx context.Context) *Session {
	raw, err := s.backend.Get(ctx, sessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.Warn("reading session failed", slog.Any("error", err))
		return nil
	}

	plain, err := s.sealer.Open(raw)
	if err != nil {
		slog.Debug("discarding unreadable session", slog.Any("error", err))
		return nil
	}

	var sess Session
	if err := json.Unmarshal(plain, &sess); err != nil {
		slog.Debug("discarding corrupt session", slog.Any("error", err))
		return nil
	}
	if sess.Token == "" {
		return nil
	}
	sess.IsAuthenticated = true

	if sess.Expired(s.now()) {
		if err := s.backend.Delete(ctx, sessionKey); err != nil {
			slog.Warn("removing expired session failed", slog.Any("error", err))
		}
		return nil
	}

	return &sess
}

// LogIn writes sess as the current session, replacing any prior one.
// Storage failures are returned to the caller unchanged in kind.
func (s *Store) LogIn(ctx context.Context, sess Session) error {
	sess.IsAuthenticated = sess.Token != ""
	sess.ExpiresAt = tokenExpiry(sess.Token)

	plain, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("sealing session: %w", err)
	}
	if err := s.backend.Set(ctx, sessionKey, sealed); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// LogOut removes the stored session.
func (s *Store) LogOut(ctx context.Context) error {
	if err := s.backend.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// Token implements gateway.TokenSource.
func (s *Store) Token(ctx context.Context) string {
	if sess := s.Current(ctx); sess != nil {
		return sess.Token
	}
	return ""
}

// RememberEndpoint records the path a visitor was denied so log-in can
// resume there. The entry lives for PendingEndpointTTL on stores with
// per-key lifetimes, so anonymous visitors leave nothing long-lived behind.
func (s *Store) RememberEndpoint(ctx context.Context, path string) error {
	if err := storage.SetWithTTL(ctx, s.backend, redirectKey, path, PendingEndpointTTL); err != nil {
		return fmt.Errorf("storing redirect endpoint: %w", err)
	}
	return nil
}

// TakeEndpoint returns the remembered endpoint and clears it. Returns "" when
// nothing was remembered.
func (s *Store) TakeEndpoint(ctx context.Context) string {
	path, err := s.backend.Get(ctx, redirectKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("reading redirect endpoint failed", slog.Any("error", err))
		}
		return ""
	}
	if err := s.backend.Delete(ctx, redirectKey); err != nil {
		slog.Warn("clearing redirect endpoint failed", slog.Any("error", err))
	}
	return path
}

// tokenExpiry reads the exp claim of a JWT bearer token without verifying
// it; the upstream API is the only party that can verify. Opaque tokens
// yield the zero time.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
