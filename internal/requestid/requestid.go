// Package requestid carries the per-request correlation ID from the inbound
// request to the log lines and upstream calls made on its behalf.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header the ID travels in, both inbound and upstream.
const Header = "X-Request-ID"

type ctxKey struct{}

// New generates a fresh ID.
func New() string {
	return uuid.NewString()
}

// With returns a copy of ctx carrying id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the ID stored in ctx, or "".
func From(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
