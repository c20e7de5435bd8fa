package wfaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wfa-platform/wfaclient/capability"
	"github.com/wfa-platform/wfaclient/internal/queryenc"
)

// ProgramSearchParams selects one page of the program catalog. The
// token, when present, rides along so the backend can mark programs
// the current user is already enrolled in.
type ProgramSearchParams struct {
	City     string
	AgeGroup string
	Type     string

	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

func (p ProgramSearchParams) values(cfg CatalogConfig) url.Values {
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
		sortBy = "startDate"
	}
	sortDir := p.SortDir
	if sortDir == "" {
		sortDir = "desc"
	}

	return queryenc.Encode(map[string]string{
		"city":     p.City,
		"ageGroup": p.AgeGroup,
		"type":     p.Type,
	}, page, pageSize, sortBy, sortDir)
}

// SearchPrograms fetches one filtered, paginated page of programs.
func (c *Client) SearchPrograms(ctx context.Context, params ProgramSearchParams) (*ProgramPage, error) {
	var page ProgramPage
	err := c.do(ctx, "search programs", http.MethodGet, "/programs/search", params.values(c.config.Catalog), nil, &page, false)
	if err != nil {
		c.metrics.Inc(MetricFetchFailure)
		return nil, err
	}
	c.metrics.Inc(MetricFetchSuccess)
	return &page, nil
}

// ProgramFilters fetches the selection-control values for the program
// search page.
func (c *Client) ProgramFilters(ctx context.Context) (*ProgramFilterOptions, error) {
	var options ProgramFilterOptions
	if err := c.do(ctx, "program filters", http.MethodGet, "/programs/filters", nil, nil, &options, false); err != nil {
		return nil, err
	}
	return &options, nil
}

// RecentPrograms fetches the newest programs for the home page. The
// limit is clamped to the configured window; zero means the default.
func (c *Client) RecentPrograms(ctx context.Context, limit int) ([]Program, error) {
	limit = queryenc.ClampLimit(limit, c.config.Catalog.RecentDefault, c.config.Catalog.RecentMax)
	query := url.Values{}
	query.Set("limit", fmt.Sprint(limit))

	var resp struct {
		Programs []Program `json:"programs"`
	}
	if err := c.do(ctx, "recent programs", http.MethodGet, "/programs/recent", query, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Programs, nil
}

// GetProgram fetches one program. IsRegistered on the result reflects
// the token attached to the request, if any.
func (c *Client) GetProgram(ctx context.Context, id string) (*Program, error) {
	if id == "" {
		return nil, fmt.Errorf("wfaclient: get program: %w: id is required", ErrValidation)
	}
	var program Program
	if err := c.do(ctx, "get program", http.MethodGet, "/programs/"+url.PathEscape(id), nil, nil, &program, false); err != nil {
		return nil, err
	}
	return &program, nil
}

// RegisterForProgram enrolls the logged-in user in a program and
// returns the program as the backend now sees it. Callers replace
// their local copy with the returned record rather than flipping
// IsRegistered themselves.
func (c *Client) RegisterForProgram(ctx context.Context, id string) (*Program, error) {
	if err := c.requireCapability("register for program", capability.CapRegisterProgram); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("wfaclient: register for program: %w: id is required", ErrValidation)
	}
	if !c.submits.TryAcquire("program-register:" + id) {
		c.metrics.Inc(MetricSubmitRefused)
		return nil, fmt.Errorf("wfaclient: register for program: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("program-register:" + id)

	var resp struct {
		Program Program `json:"program"`
	}
	if err := c.do(ctx, "register for program", http.MethodPost, "/programs/"+url.PathEscape(id)+"/register", nil, nil, &resp, true); err != nil {
		c.metrics.Inc(MetricRegisterFailure)
		c.emit(ctx, AuditEvent{EventType: AuditProgramRegister, Error: err.Error(), Metadata: map[string]string{"program": id}})
		return nil, err
	}
	c.metrics.Inc(MetricRegisterSuccess)
	c.emit(ctx, AuditEvent{EventType: AuditProgramRegister, Success: true, Metadata: map[string]string{"program": id}})
	return &resp.Program, nil
}

// CreateProgram creates a program. Admin-only.
func (c *Client) CreateProgram(ctx context.Context, input ProgramInput) (*Program, error) {
	if err := c.requireCapability("create program", capability.CapCreateProgram); err != nil {
		return nil, err
	}
	if !c.submits.TryAcquire("program-create") {
		c.metrics.Inc(MetricSubmitRefused)
		return nil, fmt.Errorf("wfaclient: create program: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("program-create")

	var program Program
	if err := c.do(ctx, "create program", http.MethodPost, "/programs/admin/programs", nil, input, &program, true); err != nil {
		return nil, err
	}
	c.emit(ctx, AuditEvent{EventType: AuditAdminWrite, Success: true, Metadata: map[string]string{"entity": "program", "op": "create"}})
	return &program, nil
}

// UpdateProgram replaces a program's editable fields. Admin-only.
func (c *Client) UpdateProgram(ctx context.Context, id string, input ProgramInput) (*Program, error) {
	if err := c.requireCapability("update program", capability.CapUpdateProgram); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("wfaclient: update program: %w: id is required", ErrValidation)
	}
	if !c.submits.TryAcquire("program-update:" + id) {
		c.metrics.Inc(MetricSubmitRefused)
		return nil, fmt.Errorf("wfaclient: update program: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("program-update:" + id)

	var program Program
	if err := c.do(ctx, "update program", http.MethodPut, "/programs/admin/programs/"+url.PathEscape(id), nil, input, &program, true); err != nil {
		return nil, err
	}
	c.emit(ctx, AuditEvent{EventType: AuditAdminWrite, Success: true, Metadata: map[string]string{"entity": "program", "op": "update"}})
	return &program, nil
}

// DeleteProgram deletes a program. Admin-only.
func (c *Client) DeleteProgram(ctx context.Context, id string) error {
	if err := c.requireCapability("delete program", capability.CapDeleteProgram); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("wfaclient: delete program: %w: id is required", ErrValidation)
	}
	if !c.submits.TryAcquire("program-delete:" + id) {
		c.metrics.Inc(MetricSubmitRefused)
		return fmt.Errorf("wfaclient: delete program: %w", ErrSubmitInFlight)
	}
	defer c.submits.Release("program-delete:" + id)

	if err := c.do(ctx, "delete program", http.MethodDelete, "/programs/admin/programs/"+url.PathEscape(id), nil, nil, nil, true); err != nil {
		return err
	}
	c.emit(ctx, AuditEvent{EventType: AuditAdminWrite, Success: true, Metadata: map[string]string{"entity": "program", "op": "delete"}})
	return nil
}
