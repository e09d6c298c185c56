// data.go provides typed context helpers for passing layout data from
// middleware to templates. Only simple types are stored so this package
// never imports plugin types.
//
// Data flow: Middleware -> Echo Context -> LayoutInjector -> Go Context -> template
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyIsAuthenticated ctxKey = "layout_is_authenticated"
	keyUserID          ctxKey = "layout_user_id"
	keyUserName        ctxKey = "layout_user_name"
	keyUserEmail       ctxKey = "layout_user_email"
	keyCSRFToken       ctxKey = "layout_csrf_token"
	keyActivePath      ctxKey = "layout_active_path"
	keyRequestID       ctxKey = "layout_request_id"
)

// --- Setters (called by the layout injector in app/routes.go) ---

// SetIsAuthenticated marks whether the current request has a session.
func SetIsAuthenticated(ctx context.Context, authed bool) context.Context {
	return context.WithValue(ctx, keyIsAuthenticated, authed)
}

// SetUserID stores the signed-in user's ID in context.
func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyUserID, id)
}

// SetUserName stores the signed-in user's full name in context.
func SetUserName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyUserName, name)
}

// SetUserEmail stores the signed-in user's email in context.
func SetUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyUserEmail, email)
}

// SetCSRFToken stores the CSRF token for forms.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// SetActivePath stores the request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// SetRequestID stores the request ID shown on error pages.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// --- Getters ---

func getString(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// IsAuthenticated reports whether a session was found for the request.
func IsAuthenticated(ctx context.Context) bool {
	b, _ := ctx.Value(keyIsAuthenticated).(bool)
	return b
}

// GetUserID returns the signed-in user's ID, or "".
func GetUserID(ctx context.Context) string { return getString(ctx, keyUserID) }

// GetUserName returns the signed-in user's full name, or "".
func GetUserName(ctx context.Context) string { return getString(ctx, keyUserName) }

// GetUserEmail returns the signed-in user's email, or "".
func GetUserEmail(ctx context.Context) string { return getString(ctx, keyUserEmail) }

// GetCSRFToken returns the CSRF token for forms.
func GetCSRFToken(ctx context.Context) string { return getString(ctx, keyCSRFToken) }

// GetActivePath returns the request path.
func GetActivePath(ctx context.Context) string { return getString(ctx, keyActivePath) }

// GetRequestID returns the request ID.
func GetRequestID(ctx context.Context) string { return getString(ctx, keyRequestID) }

// Data is a snapshot of the layout values, handed to templates as .Layout.
type Data struct {
	IsAuthenticated bool
	UserID          string
	UserName        string
	UserEmail       string
	CSRFToken       string
	ActivePath      string
	RequestID       string
}

// FromContext collects every layout value stored in ctx.
func FromContext(ctx context.Context) Data {
	return Data{
		IsAuthenticated: IsAuthenticated(ctx),
		UserID:          GetUserID(ctx),
		UserName:        GetUserName(ctx),
		UserEmail:       GetUserEmail(ctx),
		CSRFToken:       GetCSRFToken(ctx),
		ActivePath:      GetActivePath(ctx),
		RequestID:       GetRequestID(ctx),
	}
}
