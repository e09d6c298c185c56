// Package auth handles the visitor's identity: log-in, sign-up, log-out and
// account deletion against the student API, the visitor cookie that scopes
// client storage, and the route guard in front of the student area.
package auth

import (
	"errors"

	"github.com/keyxmakerx/studentdesk/internal/gateway"
	"github.com/keyxmakerx/studentdesk/internal/validation"
)

// Workflow failures. Handlers turn them into banners; the cause is wrapped
// for logging.
var (
	// ErrEmailExists means sign-up hit an existing account (HTTP 409).
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials means the API rejected the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNetwork covers every other failure: no connection, timeouts,
	// unexpected statuses and malformed responses.
	ErrNetwork = errors.New("network error")
)

// Banner texts shown above the forms.
const (
	msgEmailExists        = "Email already exists. Please log in."
	msgInvalidCredentials = "Invalid email or password"
	msgNetwork            = "Network error"
)

// Message returns the banner text for a workflow failure. Anything that is
// not a known sentinel reads as a network error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrEmailExists):
		return msgEmailExists
	case errors.Is(err, ErrInvalidCredentials):
		return msgInvalidCredentials
	default:
		return msgNetwork
	}
}

// --- Upstream payloads ---

// signUpPayload is the account creation body. The repeat password never
// leaves the frontend.
type signUpPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// logInPayload is the authentication body.
type logInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// profile is the log-in response body.
type profile struct {
	UserID    gateway.ID `json:"registered_user_uid"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
}

// --- Views (rendered by the templates package) ---

// LogInView backs the log-in page.
type LogInView struct {
	Form   validation.LogIn
	Errors *validation.Errors
	Banner string
	From   string
}

// SignUpView backs the sign-up page. EmailExists switches the banner to
// one that links to the log-in page.
type SignUpView struct {
	Form        validation.SignUp
	Errors      *validation.Errors
	Banner      string
	EmailExists bool
}

// DeleteAccountView backs the delete-account confirmation.
type DeleteAccountView struct {
	Banner string
}
