package wfaclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wfa-platform/wfaclient/session"
)

// MyProfile fetches the logged-in user's record from the backend and
// refreshes the session's cached copy with it.
func (c *Client) MyProfile(ctx context.Context) (*session.User, error) {
	var resp struct {
		User session.User `json:"user"`
	}
	if err := c.do(ctx, "my profile", http.MethodGet, "/me", nil, nil, &resp, true); err != nil {
		return nil, err
	}
	if token := c.sessions.Token(); token != "" {
		// Best effort. A storage failure here leaves the previous copy
		// in place, which is still a valid session.
		_ = c.sessions.Apply(ctx, token, resp.User)
	}
	return &resp.User, nil
}

// UpdateMyProfile applies a partial profile update. Nil fields are not
// sent and keep their server-side values. On success the session's
// cached user reflects the returned record.
func (c *Client) UpdateMyProfile(ctx context.Context, update ProfileUpdate) (*session.User, error) {
	if !c.submits.TryAcquire("profile-update") {
		c.metrics.Inc(MetricSubmitRefused)
		return nil, fmt.Errorf("wfaclient: update profile: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("profile-update")

	var resp struct {
		User session.User `json:"user"`
	}
	if err := c.do(ctx, "update profile", http.MethodPut, "/me", nil, update, &resp, true); err != nil {
		c.emit(ctx, AuditEvent{EventType: AuditProfileUpdate, Error: err.Error()})
		return nil, err
	}
	if token := c.sessions.Token(); token != "" {
		_ = c.sessions.Apply(ctx, token, resp.User)
	}
	c.emit(ctx, AuditEvent{EventType: AuditProfileUpdate, Success: true})
	return &resp.User, nil
}
