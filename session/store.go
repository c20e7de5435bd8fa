package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wfa-platform/wfaclient/capability"
)

// ErrTokenRejected is reported by a [VerifyFunc] when the backend
// refused the persisted token (expired, revoked, malformed). Restore
// clears the orphaned token when it sees this error.
var ErrTokenRejected = errors.New("session token rejected by backend")

// VerifyFunc exchanges a bearer token for the real user record, usually
// by fetching the profile endpoint. It must return [ErrTokenRejected]
// (possibly wrapped) when the backend answered 401/403, and any other
// error for transport failures.
type VerifyFunc func(ctx context.Context, token string) (*User, error)

// Store is the session store. All mutation of the token/user pair goes
// through Apply, Clear, and Restore; reads return copies. Safe for
// concurrent use.
type Store struct {
	storage Storage

	mu    sync.RWMutex
	token string
	user  *User
}

// NewStore creates a [Store] persisting through storage. A nil storage
// falls back to [MemoryStorage].
func NewStore(storage Storage) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Store{storage: storage}
}

// Apply installs a verified token/user pair, as returned by a
// successful login. The pair is persisted before it becomes visible;
// on any failure the existing state is left untouched, so a partial
// session (token without user, or the reverse) is never observable.
func (s *Store) Apply(ctx context.Context, token string, user User) error {
	if token == "" {
		return errors.New("session: token is required")
	}
	if user.ID == "" {
		return errors.New("session: user record is required")
	}

	if err := s.storage.Save(ctx, token); err != nil {
		return fmt.Errorf("session: persist token: %w", err)
	}

	u := user
	s.mu.Lock()
	s.token = token
	s.user = &u
	s.mu.Unlock()
	return nil
}

// Clear logs the session out: memory and persisted storage are both
// emptied. Clearing an already-logged-out store is a no-op. No network
// call is made; bearer tokens are stateless and the backend keeps no
// revocation list.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.storage.Clear(ctx); err != nil {
		return fmt.Errorf("session: clear persisted token: %w", err)
	}
	return nil
}

// RestoreOutcome reports what Restore found.
type RestoreOutcome uint8

const (
	// RestoreNone means no persisted token existed (or the store was
	// already logged in).
	RestoreNone RestoreOutcome = iota
	// RestoreVerified means a persisted token was confirmed and the
	// session is now logged in.
	RestoreVerified
	// RestoreRejected means the backend refused the persisted token
	// and the orphan was cleared.
	RestoreRejected
)

// Restore rehydrates the session at startup. A persisted token is
// never trusted on its own: verify must confirm it against the backend
// and return the real user record. When the backend rejects the token,
// the orphan is cleared and the store stays logged out; a transport
// failure keeps the token in storage so a later Restore can retry.
//
// Calling Restore on a store that is already logged in is a no-op.
func (s *Store) Restore(ctx context.Context, verify VerifyFunc) (RestoreOutcome, error) {
	s.mu.RLock()
	loggedIn := s.token != ""
	s.mu.RUnlock()
	if loggedIn {
		return RestoreNone, nil
	}

	token, err := s.storage.Load(ctx)
	if err != nil {
		return RestoreNone, fmt.Errorf("session: load persisted token: %w", err)
	}
	if token == "" {
		return RestoreNone, nil
	}

	if verify == nil {
		return RestoreNone, errors.New("session: restore requires a verifier")
	}

	user, err := verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenRejected) {
			if clearErr := s.storage.Clear(ctx); clearErr != nil {
				return RestoreRejected, fmt.Errorf("session: clear rejected token: %w", clearErr)
			}
			return RestoreRejected, nil
		}
		return RestoreNone, fmt.Errorf("session: verify persisted token: %w", err)
	}
	if user == nil || user.ID == "" {
		return RestoreNone, errors.New("session: verifier returned no user")
	}

	u := *user
	s.mu.Lock()
	s.token = token
	s.user = &u
	s.mu.Unlock()
	return RestoreVerified, nil
}

// Current returns a copy of the session state.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := Session{Token: s.token}
	if s.user != nil {
		u := *s.user
		sess.User = &u
	}
	return sess
}

// Token returns the current bearer token, or the empty string when
// logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Role returns the capability role of the current user, or the guest
// role when logged out.
func (s *Store) Role() capability.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return capability.RoleGuest
	}
	return capability.Role(s.user.Role)
}

// HasCapability reports whether the current role carries the
// capability. This gates UI affordances only; the backend enforces
// authorization independently.
func (s *Store) HasCapability(c capability.Capability) bool {
	mask := capability.ForRole(s.Role())
	return mask.Has(c)
}

// State reports whether the store is logged in.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token != "" {
		return StateLoggedIn
	}
	return StateLoggedOut
}
