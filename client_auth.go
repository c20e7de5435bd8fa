package wfaclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wfa-platform/wfaclient/session"
)

type loginResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Login authenticates with the backend and installs the returned
// token/user pair into the session store. Either both are stored or
// the session is left exactly as it was: a failed login never
// disturbs an existing session. Concurrent Login calls are refused
// with [ErrSubmitInFlight].
func (c *Client) Login(ctx context.Context, email, password string) error {
	if !c.submits.TryAcquire("login") {
		c.metrics.Inc(MetricSubmitRefused)
		return fmt.Errorf("wfaclient: login: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("login")

	body := map[string]string{"email": email, "password": password}
	var resp loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, body, &resp, false)
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		c.emit(ctx, AuditEvent{EventType: AuditLoginFailure, Error: err.Error()})
		if errors.Is(err, ErrUnauthorized) {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Message != "" {
				return fmt.Errorf("wfaclient: login: %w: %s", ErrInvalidCredentials, apiErr.Message)
			}
			return fmt.Errorf("wfaclient: login: %w", ErrInvalidCredentials)
		}
		return err
	}

	if resp.Token == "" || resp.User.ID == "" {
		c.metrics.Inc(MetricLoginFailure)
		return fmt.Errorf("wfaclient: login: %w: response missing token or user", ErrDecode)
	}

	if err := c.sessions.Apply(ctx, resp.Token, resp.User); err != nil {
		c.metrics.Inc(MetricLoginFailure)
		return fmt.Errorf("wfaclient: login: %w", err)
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.emit(ctx, AuditEvent{EventType: AuditLoginSuccess, UserID: resp.User.ID, Success: true})
	return nil
}

// Signup creates a new client account. It does not log the new account
// in; the backend expects a follow-up Login. Returns the backend's
// confirmation message.
func (c *Client) Signup(ctx context.Context, input SignupInput) (string, error) {
	if !c.submits.TryAcquire("signup") {
		c.metrics.Inc(MetricSubmitRefused)
		return "", fmt.Errorf("wfaclient: signup: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("signup")

	var resp struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, "signup", http.MethodPost, "/auth/signup", nil, input, &resp, false)
	if err != nil {
		c.metrics.Inc(MetricSignupFailure)
		return "", err
	}

	c.metrics.Inc(MetricSignupSuccess)
	c.emit(ctx, AuditEvent{EventType: AuditSignup, Success: true})
	return resp.Message, nil
}

// Logout clears the session, memory and persisted storage both. It is
// idempotent and makes no network call: bearer tokens are stateless
// and the backend keeps no revocation list.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("wfaclient: logout: %w", err)
	}
	c.metrics.Inc(MetricLogout)
	c.emit(ctx, AuditEvent{EventType: AuditLogout, Success: true})
	return nil
}

// RestoreSession rehydrates a persisted session at startup. With
// Session.VerifyOnRestore set (the default) the persisted token is
// confirmed via the profile endpoint before the session counts as
// authenticated; otherwise any orphaned token is simply cleared. A
// token is never decoded into an identity client-side.
func (c *Client) RestoreSession(ctx context.Context) error {
	verify := c.verifyToken
	if !c.config.Session.VerifyOnRestore {
		verify = func(context.Context, string) (*session.User, error) {
			return nil, session.ErrTokenRejected
		}
	}

	outcome, err := c.sessions.Restore(ctx, verify)
	if err != nil {
		return fmt.Errorf("wfaclient: restore session: %w", err)
	}

	switch outcome {
	case session.RestoreVerified:
		c.metrics.Inc(MetricSessionRestored)
		c.emit(ctx, AuditEvent{EventType: AuditSessionRestored, Success: true})
	case session.RestoreRejected:
		c.metrics.Inc(MetricSessionRestoreRejected)
		c.emit(ctx, AuditEvent{EventType: AuditSessionRejected})
	}
	return nil
}
