package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTimeout matches a NetworkError caused by the request deadline.
	ErrTimeout = errors.New("gateway: request timed out")

	// ErrNoConnection matches a NetworkError where no response arrived.
	ErrNoConnection = errors.New("gateway: no connection")
)

// HTTPError is returned for any non-2xx response. Body is the raw response
// body as sent by the server.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gateway: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	Method  string
	Path    string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	kind := "no connection"
	if e.Timeout {
		kind = "timeout"
	}
	return fmt.Sprintf("gateway: %s %s: %s: %v", e.Method, e.Path, kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTimeout) and errors.Is(err, ErrNoConnection)
// work. Timeouts count as lost connections too.
func (e *NetworkError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Timeout
	case ErrNoConnection:
		return true
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// HTTPError.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
