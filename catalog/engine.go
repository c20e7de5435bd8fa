package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/wfa-platform/wfaclient/internal/queryenc"
)

var (
	// ErrUnknownFilter reports a write to a filter key the schema does
	// not declare.
	ErrUnknownFilter = errors.New("catalog: unknown filter key")
	// ErrClosed reports use of an engine after Close.
	ErrClosed = errors.New("catalog: engine closed")
)

const defaultPageSize = 12

// Option configures an Engine at construction.
type Option func(*Engine)

// WithPageSize overrides the default page size of 12.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithOnUpdate registers a callback invoked after every state change,
// outside the engine's lock. The callback may call back into the
// engine.
func WithOnUpdate(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onUpdate = fn }
}

// WithOnStaleDrop registers a callback invoked each time a superseded
// response is discarded.
func WithOnStaleDrop(fn func()) Option {
	return func(e *Engine) { e.onStale = fn }
}

// Engine drives one listing. All methods are safe for concurrent use.
type Engine struct {
	schema   Schema
	fetcher  Fetcher
	onUpdate func(Snapshot)
	onStale  func()

	mu       sync.Mutex
	filters  map[string]string
	page     int
	pageSize int
	sortBy   string
	sortDir  string
	status   Status
	result   *Result
	err      error

	// gen identifies the newest trigger. A response whose generation no
	// longer matches is dropped without touching engine state.
	gen    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewEngine builds an idle engine. No fetch happens until Init or the
// first query mutation.
func NewEngine(schema Schema, fetcher Fetcher, opts ...Option) *Engine {
	e := &Engine{
		schema:   schema,
		fetcher:  fetcher,
		filters:  make(map[string]string),
		page:     1,
		pageSize: defaultPageSize,
		sortBy:   schema.DefaultSortBy,
		sortDir:  schema.DefaultSortDir,
		status:   StatusIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init seeds the query from URL values, ignoring keys outside the
// schema and malformed numbers, then runs the first fetch. Deep links
// land on the exact page and filters they encode.
func (e *Engine) Init(values url.Values) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	for _, key := range e.schema.Filters {
		if v := values.Get(key); v != "" {
			e.filters[key] = v
		}
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 1 {
		e.page = page
	}
	if size, err := strconv.Atoi(values.Get("pageSize")); err == nil && size > 0 {
		e.pageSize = size
	}
	if v := values.Get("sortBy"); v != "" {
		e.sortBy = v
	}
	if v := values.Get("sortDir"); v == "asc" || v == "desc" {
		e.sortDir = v
	}
	snap := e.triggerLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// SetFilter sets one filter value and resets the page to 1. An empty
// value removes the filter. Exactly one fetch is triggered.
func (e *Engine) SetFilter(key, value string) error {
	if !e.schema.allows(key) {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, key)
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if value == "" {
		delete(e.filters, key)
	} else {
		e.filters[key] = value
	}
	e.page = 1
	snap := e.triggerLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// ClearFilters removes every filter and resets the page to 1 with a
// single fetch, regardless of how many filters were set.
func (e *Engine) ClearFilters() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.filters = make(map[string]string)
	e.page = 1
	snap := e.triggerLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// SetPage moves to another page. The target is clamped to the page
// range of the last result; a clamp that lands on the current page is
// a no-op with no fetch.
func (e *Engine) SetPage(page int) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	page = queryenc.ClampPage(page, e.result.TotalPages())
	if page == e.page {
		e.mu.Unlock()
		return nil
	}
	e.page = page
	snap := e.triggerLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// SetSort changes the sort order and resets the page to 1. Empty
// arguments fall back to the schema defaults.
func (e *Engine) SetSort(by, dir string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if by == "" {
		by = e.schema.DefaultSortBy
	}
	if dir != "asc" && dir != "desc" {
		dir = e.schema.DefaultSortDir
	}
	e.sortBy = by
	e.sortDir = dir
	e.page = 1
	snap := e.triggerLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// Refresh refetches the current query unchanged.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	snap := e.triggerLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// ApplyItemUpdate replaces the in-page copy of one item with a record
// the backend has confirmed, matched by id. An item not on the current
// page is ignored; the page may have moved since the action started.
func (e *Engine) ApplyItemUpdate(raw json.RawMessage) error {
	updated := Item(raw)
	meta, err := updated.Meta()
	if err != nil {
		return fmt.Errorf("catalog: apply item update: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.result == nil {
		e.mu.Unlock()
		return nil
	}
	replaced := false
	items := make([]Item, len(e.result.Items))
	copy(items, e.result.Items)
	for i, it := range items {
		m, err := it.Meta()
		if err != nil {
			continue
		}
		if m.ID == meta.ID {
			items[i] = updated
			replaced = true
			break
		}
	}
	if !replaced {
		e.mu.Unlock()
		return nil
	}
	next := *e.result
	next.Items = items
	e.result = &next
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Values encodes the current query for the address bar. Filters with
// empty values never appear.
func (e *Engine) Values() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	return queryenc.Encode(e.filters, e.page, e.pageSize, e.sortBy, e.sortDir)
}

// Close cancels any in-flight fetch and waits for its goroutine to
// finish. The engine is unusable afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()
	e.wg.Wait()
}

// triggerLocked cancels the previous fetch, bumps the generation, and
// starts a new one. Returns the loading snapshot for delivery after
// the caller releases the lock.
func (e *Engine) triggerLocked() Snapshot {
	if e.closed {
		return e.snapshotLocked()
	}
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.gen++
	gen := e.gen
	query := queryenc.Encode(e.filters, e.page, e.pageSize, e.sortBy, e.sortDir)

	e.status = StatusLoading
	e.err = nil

	e.wg.Add(1)
	go e.fetch(ctx, cancel, gen, query)
	return e.snapshotLocked()
}

func (e *Engine) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, query url.Values) {
	defer e.wg.Done()
	res, err := e.fetcher.FetchPage(ctx, query)
	cancel()

	e.mu.Lock()
	if gen != e.gen || e.closed {
		e.mu.Unlock()
		if e.onStale != nil {
			e.onStale()
		}
		return
	}
	e.cancel = nil

	var snap Snapshot
	if err != nil {
		e.status = StatusError
		e.err = err
		e.result = nil
		snap = e.snapshotLocked()
	} else if total := res.TotalPages(); e.page > total {
		// The collection shrank under us. Clamp and refetch once.
		e.page = total
		snap = e.triggerLocked()
	} else {
		e.status = StatusReady
		e.result = res
		e.err = nil
		snap = e.snapshotLocked()
	}
	e.mu.Unlock()
	e.notify(snap)
}

func (e *Engine) snapshotLocked() Snapshot {
	filters := make(map[string]string, len(e.filters))
	for k, v := range e.filters {
		filters[k] = v
	}
	return Snapshot{
		Status:   e.status,
		Filters:  filters,
		Page:     e.page,
		PageSize: e.pageSize,
		SortBy:   e.sortBy,
		SortDir:  e.sortDir,
		Result:   e.result,
		Err:      e.err,
	}
}

func (e *Engine) notify(snap Snapshot) {
	if e.onUpdate != nil {
		e.onUpdate(snap)
	}
}
