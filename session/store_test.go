package session

import (
	"context"
	"errors"
	"testing"

	"github.com/wfa-platform/wfaclient/capability"
)

type failingStorage struct {
	saveErr  error
	loadErr  error
	clearErr error
	token    string
}

func (f *failingStorage) Load(context.Context) (string, error) {
	return f.token, f.loadErr
}

func (f *failingStorage) Save(_ context.Context, token string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.token = token
	return nil
}

func (f *failingStorage) Clear(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.token = ""
	return nil
}

func testUser() User {
	return User{
		ID:        "u-1",
		Email:     "alice@example.com",
		Role:      "CLIENT",
		FirstName: "Alice",
		LastName:  "Keane",
	}
}

func TestApplyAtomicity(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token rejected", func(t *testing.T) {
		store := NewStore(nil)
		if err := store.Apply(ctx, "", testUser()); err == nil {
			t.Fatal("expected error for empty token")
		}
		if store.State() != StateLoggedOut {
			t.Fatal("failed apply must leave store logged out")
		}
	})

	t.Run("empty user rejected", func(t *testing.T) {
		store := NewStore(nil)
		if err := store.Apply(ctx, "tok", User{}); err == nil {
			t.Fatal("expected error for empty user")
		}
		if got := store.Token(); got != "" {
			t.Fatalf("token leaked after failed apply: %q", got)
		}
	})

	t.Run("persist failure leaves state untouched", func(t *testing.T) {
		store := NewStore(&failingStorage{saveErr: errors.New("disk full")})
		if err := store.Apply(ctx, "tok", testUser()); err == nil {
			t.Fatal("expected persist error")
		}
		sess := store.Current()
		if sess.Token != "" || sess.User != nil {
			t.Fatalf("partial session observable: %+v", sess)
		}
	})

	t.Run("success sets both and persists", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage)
		if err := store.Apply(ctx, "tok", testUser()); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		sess := store.Current()
		if sess.Token != "tok" || sess.User == nil || sess.User.ID != "u-1" {
			t.Fatalf("unexpected session: %+v", sess)
		}
		persisted, err := storage.Load(ctx)
		if err != nil || persisted != "tok" {
			t.Fatalf("persisted = %q, err = %v", persisted, err)
		}
		if store.State() != StateLoggedIn {
			t.Fatal("expected logged-in state")
		}
	})
}

func TestClearIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := NewStore(storage)

	if err := store.Apply(ctx, "tok", testUser()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear #%d failed: %v", i+1, err)
		}
		if store.State() != StateLoggedOut {
			t.Fatalf("Clear #%d did not log out", i+1)
		}
		if token, _ := storage.Load(ctx); token != "" {
			t.Fatalf("Clear #%d left persisted token %q", i+1, token)
		}
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("no persisted token", func(t *testing.T) {
		store := NewStore(nil)
		called := false
		outcome, err := store.Restore(ctx, func(context.Context, string) (*User, error) {
			called = true
			return nil, nil
		})
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if outcome != RestoreNone {
			t.Fatalf("outcome = %v, want RestoreNone", outcome)
		}
		if called {
			t.Fatal("verifier must not run without a persisted token")
		}
		if store.State() != StateLoggedOut {
			t.Fatal("expected logged-out state")
		}
	})

	t.Run("verified token restores session", func(t *testing.T) {
		storage := NewMemoryStorage()
		_ = storage.Save(ctx, "persisted-tok")
		store := NewStore(storage)

		u := testUser()
		outcome, err := store.Restore(ctx, func(_ context.Context, token string) (*User, error) {
			if token != "persisted-tok" {
				t.Fatalf("verifier got token %q", token)
			}
			return &u, nil
		})
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if outcome != RestoreVerified {
			t.Fatalf("outcome = %v, want RestoreVerified", outcome)
		}
		sess := store.Current()
		if sess.Token != "persisted-tok" || sess.User == nil || sess.User.Email != "alice@example.com" {
			t.Fatalf("unexpected session: %+v", sess)
		}
	})

	t.Run("rejected token is cleared", func(t *testing.T) {
		storage := NewMemoryStorage()
		_ = storage.Save(ctx, "stale-tok")
		store := NewStore(storage)

		outcome, err := store.Restore(ctx, func(context.Context, string) (*User, error) {
			return nil, ErrTokenRejected
		})
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if outcome != RestoreRejected {
			t.Fatalf("outcome = %v, want RestoreRejected", outcome)
		}
		if store.State() != StateLoggedOut {
			t.Fatal("expected logged-out state")
		}
		if token, _ := storage.Load(ctx); token != "" {
			t.Fatalf("orphaned token not cleared: %q", token)
		}
	})

	t.Run("transport failure keeps token for retry", func(t *testing.T) {
		storage := NewMemoryStorage()
		_ = storage.Save(ctx, "tok")
		store := NewStore(storage)

		_, err := store.Restore(ctx, func(context.Context, string) (*User, error) {
			return nil, errors.New("connection refused")
		})
		if err == nil {
			t.Fatal("expected transport error to surface")
		}
		if token, _ := storage.Load(ctx); token != "tok" {
			t.Fatal("token must survive a transport failure")
		}
		if store.State() != StateLoggedOut {
			t.Fatal("store must stay logged out after failed verify")
		}
	})

	t.Run("logged-in store is a no-op", func(t *testing.T) {
		store := NewStore(nil)
		if err := store.Apply(ctx, "tok", testUser()); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		_, err := store.Restore(ctx, func(context.Context, string) (*User, error) {
			t.Fatal("verifier must not run when already logged in")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
	})

	t.Run("nil verifier with persisted token", func(t *testing.T) {
		storage := NewMemoryStorage()
		_ = storage.Save(ctx, "tok")
		store := NewStore(storage)
		if _, err := store.Restore(ctx, nil); err == nil {
			t.Fatal("expected error for nil verifier")
		}
	})
}

func TestCurrentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	if err := store.Apply(ctx, "tok", testUser()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	sess := store.Current()
	sess.User.Email = "mutated@example.com"

	if store.Current().User.Email != "alice@example.com" {
		t.Fatal("Current leaked a reference to internal state")
	}
}

func TestRoleAndCapabilities(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	if store.Role() != capability.RoleGuest {
		t.Fatalf("logged-out role = %q, want guest", store.Role())
	}
	if store.HasCapability(capability.CapDeleteProgram) {
		t.Fatal("guest must not carry admin capabilities")
	}

	admin := testUser()
	admin.Role = "ADMIN"
	if err := store.Apply(ctx, "tok", admin); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !store.HasCapability(capability.CapDeleteProgram) {
		t.Fatal("admin must carry delete-program capability")
	}
	if store.HasCapability(capability.CapRegisterProgram) {
		t.Fatal("admin must not carry register capability")
	}
}
