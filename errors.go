package wfaclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrTransport marks failures where the request never produced a
	// usable response: connection errors, timeouts, unparsable bodies.
	ErrTransport = errors.New("transport failure")
	// ErrDecode marks a 2xx response whose body did not match the
	// expected shape.
	ErrDecode = errors.New("response decode failure")
	// ErrInvalidCredentials is returned by Login for a 401 on the
	// login endpoint.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized marks a 401 on an authenticated route. The
	// client forces a session re-verification when it sees one.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks a 403, or a client-side capability check that
	// refused to issue the request at all.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a 404 on a detail fetch. Surfaced as its own
	// state, never lumped with generic failures.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks a 400/422 carrying structured field errors.
	ErrValidation = errors.New("validation failed")
	// ErrSubmitInFlight is returned when a non-cancellable submit
	// (login, signup, CRUD write) is already running for the same key.
	ErrSubmitInFlight = errors.New("submit already in flight")
)

// APIError is a non-2xx backend response. Message carries the
// backend's error or message field when one was parseable, else a
// generic fallback. Fields holds per-field validation errors when the
// backend supplied them.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) == 0 {
		return msg
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return msg + " (" + strings.Join(parts, "; ") + ")"
}

// Is maps the error to its class sentinel so callers can use
// errors.Is(err, ErrNotFound) and friends without inspecting status
// codes.
func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

func transportErr(op string, err error) error {
	return fmt.Errorf("wfaclient: %s: %w: %v", op, ErrTransport, err)
}

func decodeErr(op string, err error) error {
	return fmt.Errorf("wfaclient: %s: %w: %v", op, ErrDecode, err)
}
