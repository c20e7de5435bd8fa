package wfaclient

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/wfa-platform/wfaclient/session"
)

// authTransport decorates every outgoing request with the current
// bearer token, a request correlation ID, and the client's User-Agent.
// The session store is read, never mutated, here; only the client's
// auth flows write it.
type authTransport struct {
	next      http.RoundTripper
	sessions  *session.Store
	userAgent string
}

func newAuthTransport(next http.RoundTripper, sessions *session.Store, userAgent string) *authTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &authTransport{
		next:      next,
		sessions:  sessions,
		userAgent: userAgent,
	}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per RoundTripper contract the request must not be mutated.
	clone := req.Clone(req.Context())

	if clone.Header.Get("Authorization") == "" && t.sessions != nil {
		if token := t.sessions.Token(); token != "" {
			clone.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if clone.Header.Get("X-Request-ID") == "" {
		id := requestIDFromContext(req.Context())
		if id == "" {
			id = uuid.NewString()
		}
		clone.Header.Set("X-Request-ID", id)
	}

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	return t.next.RoundTrip(clone)
}
