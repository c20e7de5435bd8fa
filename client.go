package wfaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wfa-platform/wfaclient/internal/latch"
	"github.com/wfa-platform/wfaclient/session"
)

// Client is the SDK entry point. Construct it through [New] and
// [Builder.Build]; after Build it is immutable and safe for concurrent
// use.
type Client struct {
	config   Config
	baseURL  string
	http     *http.Client
	sessions *session.Store
	submits  *latch.Latch
	audit    *auditDispatcher
	metrics  *Metrics
}

// Session exposes the session store shared by every call.
func (c *Client) Session() *session.Store {
	return c.sessions
}

// Metrics exposes the client's counter registry.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// MetricsSnapshot copies the current counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped because the
// buffer was full.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// Close stops the audit dispatcher, draining buffered events first.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

func (c *Client) emit(ctx context.Context, event AuditEvent) {
	if c.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	if event.UserID == "" {
		if sess := c.sessions.Current(); sess.User != nil {
			event.UserID = sess.User.ID
		}
	}
	event.RequestID = requestIDFromContext(ctx)
	c.audit.Emit(ctx, event)
}

// do runs one JSON request/response cycle. authed marks routes that
// require a bearer token: a 401 there triggers the forced
// re-verification path before the error is returned.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any, authed bool) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("wfaclient: %s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("wfaclient: %s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
	if err != nil {
		return transportErr(op, err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.config.HTTP.MaxBodyBytes)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(limited, resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized && authed {
			c.forceReverify(ctx)
		}
		return fmt.Errorf("wfaclient: %s: %w", op, apiErr)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, limited)
		return nil
	}

	data, err := io.ReadAll(limited)
	if err != nil {
		return transportErr(op, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return decodeErr(op, err)
	}
	return nil
}

// parseAPIError turns a non-2xx body into an [APIError]. The backend
// reports either {"error": "..."} or {"message": "..."}, optionally
// with per-field validation errors; an unparsable body yields the
// generic message for its class.
func parseAPIError(body io.Reader, status int) *APIError {
	apiErr := &APIError{Status: status}

	var payload struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	}
	data, err := io.ReadAll(body)
	if err == nil && json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Error != "":
			apiErr.Message = payload.Error
		case payload.Message != "":
			apiErr.Message = payload.Message
		}
		apiErr.Fields = parseFieldErrors(payload.Errors)
	}
	return apiErr
}

func parseFieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	byName := map[string]string{}
	if err := json.Unmarshal(raw, &byName); err == nil && len(byName) > 0 {
		return byName
	}

	var list []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		fields := make(map[string]string, len(list))
		for _, f := range list {
			if f.Field != "" {
				fields[f.Field] = f.Message
			}
		}
		if len(fields) > 0 {
			return fields
		}
	}
	return nil
}

// forceReverify runs once after a 401 on an authenticated route: the
// current token may have expired, so confirm it against the profile
// endpoint and clear the session when the backend rejects it. A
// transport failure leaves the session alone; the next authenticated
// call will land here again.
func (c *Client) forceReverify(ctx context.Context) {
	token := c.sessions.Token()
	if token == "" {
		return
	}

	_, err := c.verifyToken(ctx, token)
	if err == nil {
		return
	}
	if errors.Is(err, session.ErrTokenRejected) {
		_ = c.sessions.Clear(ctx)
		c.metrics.Inc(MetricForcedLogout)
		c.emit(ctx, AuditEvent{EventType: AuditForcedLogout, Success: true})
	}
}

// verifyToken exchanges a bearer token for the account it belongs to
// via GET /me. Rejections map to [session.ErrTokenRejected] so the
// session layer can distinguish them from transport failures.
func (c *Client) verifyToken(ctx context.Context, token string) (*session.User, error) {
	endpoint := c.baseURL + "/me"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("wfaclient: verify token: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportErr("verify token", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.config.HTTP.MaxBodyBytes)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, limited)
		return nil, fmt.Errorf("wfaclient: verify token: %w", session.ErrTokenRejected)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("wfaclient: verify token: %w", parseAPIError(limited, resp.StatusCode))
	}

	var payload struct {
		User session.User `json:"user"`
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, transportErr("verify token", err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, decodeErr("verify token", err)
	}
	if payload.User.ID == "" {
		return nil, fmt.Errorf("wfaclient: verify token: %w: profile response missing user", ErrDecode)
	}
	return &payload.User, nil
}
