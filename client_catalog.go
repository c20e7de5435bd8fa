package wfaclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/wfa-platform/wfaclient/catalog"
)

// rawPage decodes a listing page without interpreting its items, so
// backend fields this library does not model survive intact.
type rawPage struct {
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Total    int            `json:"total"`
	Data     []catalog.Item `json:"data"`
}

func (c *Client) fetchRawPage(ctx context.Context, op, path string, query url.Values) (*catalog.Result, error) {
	var page rawPage
	if err := c.do(ctx, op, http.MethodGet, path, query, nil, &page, false); err != nil {
		c.metrics.Inc(MetricFetchFailure)
		return nil, err
	}
	c.metrics.Inc(MetricFetchSuccess)
	return &catalog.Result{
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		Items:    page.Data,
	}, nil
}

// AcademyFetcher returns a fetcher for the academy listing, for use
// with [catalog.NewEngine] and [catalog.AcademiesSchema].
func (c *Client) AcademyFetcher() catalog.Fetcher {
	return catalog.FetcherFunc(func(ctx context.Context, query url.Values) (*catalog.Result, error) {
		return c.fetchRawPage(ctx, "list academies", "/academies", query)
	})
}

// ProgramFetcher returns a fetcher for the program search listing, for
// use with [catalog.NewEngine] and [catalog.ProgramsSchema]. The
// session token rides along on each fetch so results carry the
// caller's registration state.
func (c *Client) ProgramFetcher() catalog.Fetcher {
	return catalog.FetcherFunc(func(ctx context.Context, query url.Values) (*catalog.Result, error) {
		return c.fetchRawPage(ctx, "search programs", "/programs/search", query)
	})
}

// NewAcademyEngine builds an engine over the academy listing with the
// client's configured page size and stale-drop metric wired in.
func (c *Client) NewAcademyEngine(opts ...catalog.Option) *catalog.Engine {
	return c.newEngine(catalog.AcademiesSchema, c.AcademyFetcher(), opts)
}

// NewProgramEngine builds an engine over the program search listing.
func (c *Client) NewProgramEngine(opts ...catalog.Option) *catalog.Engine {
	return c.newEngine(catalog.ProgramsSchema, c.ProgramFetcher(), opts)
}

func (c *Client) newEngine(schema catalog.Schema, fetcher catalog.Fetcher, opts []catalog.Option) *catalog.Engine {
	base := []catalog.Option{
		catalog.WithPageSize(c.config.Catalog.PageSize),
		catalog.WithOnStaleDrop(func() { c.metrics.Inc(MetricStaleDropped) }),
	}
	return catalog.NewEngine(schema, fetcher, append(base, opts...)...)
}
