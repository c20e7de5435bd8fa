package wfaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wfa-platform/wfaclient/capability"
	"github.com/wfa-platform/wfaclient/internal/queryenc"
)

// AcademyListParams selects one page of the academy catalog. Empty
// filter fields mean "any" and are omitted from the request entirely.
type AcademyListParams struct {
	City        string
	Country     string
	Status      string
	HasPrograms string
	Query       string

	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

func (p AcademyListParams) values(cfg CatalogConfig) url.Values {
	page := p.Page
	if page < 1 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = cfg.PageSize
	}
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "name"
	}
	sortDir := p.SortDir
	if sortDir == "" {
		sortDir = "asc"
	}

	return queryenc.Encode(map[string]string{
		"city":        p.City,
		"country":     p.Country,
		"status":      p.Status,
		"hasPrograms": p.HasPrograms,
		"q":           p.Query,
	}, page, pageSize, sortBy, sortDir)
}

// ListAcademies fetches one filtered, paginated page of academies.
func (c *Client) ListAcademies(ctx context.Context, params AcademyListParams) (*AcademyPage, error) {
	var page AcademyPage
	err := c.do(ctx, "list academies", http.MethodGet, "/academies", params.values(c.config.Catalog), nil, &page, false)
	if err != nil {
		c.metrics.Inc(MetricFetchFailure)
		return nil, err
	}
	c.metrics.Inc(MetricFetchSuccess)
	return &page, nil
}

// AcademyFilters fetches the selection-control values for the academy
// listing. Callers refetch on every page mount; nothing is cached.
func (c *Client) AcademyFilters(ctx context.Context) (*AcademyFilterOptions, error) {
	var options AcademyFilterOptions
	if err := c.do(ctx, "academy filters", http.MethodGet, "/academies/filters", nil, nil, &options, false); err != nil {
		return nil, err
	}
	return &options, nil
}

// FeaturedAcademies fetches the home-page highlight strip. A limit
// below 1 falls back to the configured default.
func (c *Client) FeaturedAcademies(ctx context.Context, limit int) ([]Academy, error) {
	limit = queryenc.ClampLimit(limit, c.config.Catalog.FeaturedLimit, defaultRecentMax)
	query := url.Values{}
	query.Set("limit", fmt.Sprint(limit))

	var resp struct {
		Academies []Academy `json:"academies"`
	}
	if err := c.do(ctx, "featured academies", http.MethodGet, "/academies/featured", query, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Academies, nil
}

// GetAcademy fetches one academy. A missing record surfaces as
// [ErrNotFound], distinct from transport failures.
func (c *Client) GetAcademy(ctx context.Context, id string) (*Academy, error) {
	if id == "" {
		return nil, fmt.Errorf("wfaclient: get academy: %w: id is required", ErrValidation)
	}
	var academy Academy
	if err := c.do(ctx, "get academy", http.MethodGet, "/academies/"+url.PathEscape(id), nil, nil, &academy, false); err != nil {
		return nil, err
	}
	return &academy, nil
}

// CreateAcademy creates an academy. Admin-only; the capability check
// here mirrors the hidden UI control and the backend enforces the real
// boundary.
func (c *Client) CreateAcademy(ctx context.Context, input AcademyInput) (*Academy, error) {
	if err := c.requireCapability("create academy", capability.CapCreateAcademy); err != nil {
		return nil, err
	}
	if !c.submits.TryAcquire("academy-create") {
		c.metrics.Inc(MetricSubmitRefused)
		return nil, fmt.Errorf("wfaclient: create academy: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("academy-create")

	var academy Academy
	if err := c.do(ctx, "create academy", http.MethodPost, "/academies", nil, input, &academy, true); err != nil {
		return nil, err
	}
	c.emit(ctx, AuditEvent{EventType: AuditAdminWrite, Success: true, Metadata: map[string]string{"entity": "academy", "op": "create"}})
	return &academy, nil
}

// UpdateAcademy applies a partial update to an academy. Admin-only.
func (c *Client) UpdateAcademy(ctx context.Context, id string, input AcademyInput) (*Academy, error) {
	if err := c.requireCapability("update academy", capability.CapUpdateAcademy); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("wfaclient: update academy: %w: id is required", ErrValidation)
	}
	if !c.submits.TryAcquire("academy-update:" + id) {
		c.metrics.Inc(MetricSubmitRefused)
		return nil, fmt.Errorf("wfaclient: update academy: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("academy-update:" + id)

	var academy Academy
	if err := c.do(ctx, "update academy", http.MethodPatch, "/academies/"+url.PathEscape(id), nil, input, &academy, true); err != nil {
		return nil, err
	}
	c.emit(ctx, AuditEvent{EventType: AuditAdminWrite, Success: true, Metadata: map[string]string{"entity": "academy", "op": "update"}})
	return &academy, nil
}

// DeleteAcademy deletes an academy. Admin-only. The caller confirms
// with the user first; this method does not.
func (c *Client) DeleteAcademy(ctx context.Context, id string) error {
	if err := c.requireCapability("delete academy", capability.CapDeleteAcademy); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("wfaclient: delete academy: %w: id is required", ErrValidation)
	}
	if !c.submits.TryAcquire("academy-delete:" + id) {
		c.metrics.Inc(MetricSubmitRefused)
		return fmt.Errorf("wfaclient: delete academy: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("academy-delete:" + id)

	if err := c.do(ctx, "delete academy", http.MethodDelete, "/academies/"+url.PathEscape(id), nil, nil, nil, true); err != nil {
		return err
	}
	c.emit(ctx, AuditEvent{EventType: AuditAdminWrite, Success: true, Metadata: map[string]string{"entity": "academy", "op": "delete"}})
	return nil
}

func (c *Client) requireCapability(op string, needed capability.Capability) error {
	if !c.sessions.HasCapability(needed) {
		return fmt.Errorf("wfaclient: %s: %w: current role lacks the capability", op, ErrForbidden)
	}
	return nil
}
