package catalog

import (
	"context"
	"net/url"
)

// Fetcher retrieves one page for an encoded query. Implementations
// must honor context cancellation; the engine cancels superseded
// requests through it.
type Fetcher interface {
	FetchPage(ctx context.Context, query url.Values) (*Result, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, query url.Values) (*Result, error)

func (f FetcherFunc) FetchPage(ctx context.Context, query url.Values) (*Result, error) {
	return f(ctx, query)
}

// Schema declares which filter keys a collection accepts and how it
// sorts by default. The engine rejects writes to keys outside the
// schema instead of silently sending them.
type Schema struct {
	// Filters lists the accepted filter keys in display order.
	Filters []string
	// DefaultSortBy and DefaultSortDir seed a fresh engine.
	DefaultSortBy  string
	DefaultSortDir string
}

func (s Schema) allows(key string) bool {
	for _, k := range s.Filters {
		if k == key {
			return true
		}
	}
	return false
}

// AcademiesSchema describes the academy listing.
var AcademiesSchema = Schema{
	Filters:        []string{"city", "country", "status", "hasPrograms", "q"},
	DefaultSortBy:  "name",
	DefaultSortDir: "asc",
}

// ProgramsSchema describes the program search listing.
var ProgramsSchema = Schema{
	Filters:        []string{"city", "ageGroup", "type"},
	DefaultSortBy:  "startDate",
	DefaultSortDir: "desc",
}
