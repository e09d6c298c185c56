package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSafeMessage_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("loading student: %w", NewNetwork(errors.New("dial tcp: refused")))

	if got := SafeMessage(err); got != "Network error" {
		t.Errorf("expected %q, got %q", "Network error", got)
	}
	if got := SafeCode(err); got != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", got)
	}
}

func TestSafeMessage_PlainError(t *testing.T) {
	err := errors.New("upstream said: SELECT * FROM students failed")

	if got := SafeMessage(err); got == err.Error() {
		t.Error("raw error text must not be exposed")
	}
	if got := SafeCode(err); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestInternal_UnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternal(cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Message != "Internal server error" {
		t.Errorf("unexpected message %q", err.Message)
	}
}
