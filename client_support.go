package wfaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wfa-platform/wfaclient/capability"
)

// SupportInput is the public contact-form body. Name and email are
// required even for logged-in users; the backend does not infer them
// from the token.
type SupportInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// CreateSupportRequest submits a contact-form message. Works for any
// role; a bearer token, when present, lets the backend link the ticket
// to the account.
func (c *Client) CreateSupportRequest(ctx context.Context, input SupportInput) (*SupportRequest, error) {
	if !c.submits.TryAcquire("support-create") {
		c.metrics.Inc(MetricSubmitRefused)
		return nil, fmt.Errorf("wfaclient: create support request: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("support-create")

	var resp struct {
		Data SupportRequest `json:"data"`
	}
	if err := c.do(ctx, "create support request", http.MethodPost, "/support", nil, input, &resp, false); err != nil {
		return nil, err
	}
	c.emit(ctx, AuditEvent{EventType: AuditSupportCreate, Success: true, Metadata: map[string]string{"ticket": resp.Data.ID}})
	return &resp.Data, nil
}

// SupportRequests lists all tickets. Admin-only.
func (c *Client) SupportRequests(ctx context.Context) ([]SupportRequest, error) {
	if err := c.requireCapability("list support requests", capability.CapListSupport); err != nil {
		return nil, err
	}
	var resp struct {
		Data []SupportRequest `json:"data"`
	}
	if err := c.do(ctx, "list support requests", http.MethodGet, "/support", nil, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MySupportRequests lists the logged-in user's own tickets.
func (c *Client) MySupportRequests(ctx context.Context) ([]SupportRequest, error) {
	if err := c.requireCapability("my support requests", capability.CapViewOwnSupport); err != nil {
		return nil, err
	}
	var resp struct {
		Data []SupportRequest `json:"data"`
	}
	if err := c.do(ctx, "my support requests", http.MethodGet, "/support/my", nil, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ReplySupportRequest appends an admin reply to a ticket and returns
// the updated ticket with its full thread.
func (c *Client) ReplySupportRequest(ctx context.Context, id, reply string) (*SupportRequest, error) {
	if err := c.requireCapability("reply support request", capability.CapReplySupport); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("wfaclient: reply support request: %w: id is required", ErrValidation)
	}
	if reply == "" {
		return nil, fmt.Errorf("wfaclient: reply support request: %w: reply is required", ErrValidation)
	}
	if !c.submits.TryAcquire("support-reply:" + id) {
		c.metrics.Inc(MetricSubmitRefused)
		return nil, fmt.Errorf("wfaclient: reply support request: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("support-reply:" + id)

	body := struct {
		Reply string `json:"reply"`
	}{Reply: reply}

	var resp struct {
		Data SupportRequest `json:"data"`
	}
	if err := c.do(ctx, "reply support request", http.MethodPost, "/support/"+url.PathEscape(id)+"/reply", nil, body, &resp, true); err != nil {
		return nil, err
	}
	c.emit(ctx, AuditEvent{EventType: AuditSupportReply, Success: true, Metadata: map[string]string{"ticket": id}})
	return &resp.Data, nil
}
