package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/session"
	"github.com/keyxmakerx/studentdesk/internal/validation"
)

// Upstream endpoints.
const (
	pathLogIn  = "/api/v1/user/login"
	pathSignUp = "/api/v1/user/signup"
	pathUser   = "/api/v1/user/"
)

// Sender issues requests to the student API. *gateway.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, method, path string, body any) (*gateway.Response, error)
}

// AuthService defines the authentication workflows. They talk to the API
// and return data; they never write the Session Store. The caller commits
// a returned session with session.Store.LogIn.
//
// Validation failures come back as *validation.Errors with no request sent.
type AuthService interface {
	SignUp(ctx context.Context, form validation.SignUp) (*session.Session, error)
	LogIn(ctx context.Context, form validation.LogIn) (*session.Session, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// authService implements AuthService on top of a Sender.
type authService struct {
	api Sender
}

// NewAuthService creates the auth workflows. api must carry the visitor's
// token for DeleteAccount.
func NewAuthService(api Sender) AuthService {
	return &authService{api: api}
}

// SignUp creates the account and then logs in with the same credentials.
// A 409 returns ErrEmailExists without attempting the log-in.
func (s *authService) SignUp(ctx context.Context, form validation.SignUp) (*session.Session, error) {
	form.Trim()
	if errs := validation.Validate(&form); errs != nil {
		return nil, errs
	}

	payload := signUpPayload{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	}
	if _, err := s.api.Send(ctx, http.MethodPost, pathSignUp, payload); err != nil {
		if gateway.StatusOf(err) == http.StatusConflict {
			return nil, fmt.Errorf("%w: %w", ErrEmailExists, err)
		}
		slog.Warn("sign-up failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	sess, err := s.authenticate(ctx, form.Email, form.Password)
	if err != nil {
		return nil, err
	}

	slog.Info("account created", slog.String("user_id", sess.UserID))
	return sess, nil
}

// LogIn authenticates with the API. 400, 401 and 404 mean the credentials
// were rejected; everything else is a network error.
func (s *authService) LogIn(ctx context.Context, form validation.LogIn) (*session.Session, error) {
	form.Trim()
	if errs := validation.Validate(&form); errs != nil {
		return nil, errs
	}
	return s.authenticate(ctx, form.Email, form.Password)
}

func (s *authService) authenticate(ctx context.Context, email, password string) (*session.Session, error) {
	resp, err := s.api.Send(ctx, http.MethodPost, pathLogIn, logInPayload{Email: email, Password: password})
	if err != nil {
		switch gateway.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		slog.Warn("log-in failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	sess, err := decodeSession(resp)
	if err != nil {
		slog.Error("malformed log-in response", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return sess, nil
}

// DeleteAccount removes the user's account. An account that is already gone
// counts as deleted.
func (s *authService) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: no user id in session", ErrNetwork)
	}

	_, err := s.api.Send(ctx, http.MethodDelete, pathUser+url.PathEscape(userID), nil)
	if err == nil {
		slog.Info("account deleted", slog.String("user_id", userID))
		return nil
	}
	if gateway.StatusOf(err) == http.StatusNotFound {
		slog.Warn("account already deleted", slog.String("user_id", userID))
		return nil
	}
	slog.Warn("account deletion failed", slog.String("user_id", userID), slog.Any("error", err))
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// decodeSession builds a session from a log-in response: the token from the
// Authorization header and the profile from the body.
func decodeSession(resp *gateway.Response) (*session.Session, error) {
	token := gateway.BearerToken(resp.Header)
	if token == "" {
		return nil, errors.New("log-in response carries no bearer token")
	}

	var p profile
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	if p.UserID == "" {
		return nil, errors.New("log-in response has no registered_user_uid")
	}

	return &session.Session{
		IsAuthenticated: true,
		Token:           token,
		UserID:          p.UserID.String(),
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
	}, nil
}
