package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func newTestEngine(t *testing.T, fetch FetcherFunc, opts ...Option) (*Engine, chan Snapshot) {
	t.Helper()
	updates := make(chan Snapshot, 64)
	opts = append(opts, WithOnUpdate(func(s Snapshot) { updates <- s }))
	eng := NewEngine(ProgramsSchema, fetch, opts...)
	t.Cleanup(eng.Close)
	return eng, updates
}

// waitSettled drains updates until the engine leaves the loading state.
func waitSettled(t *testing.T, updates chan Snapshot) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Status == StatusReady || snap.Status == StatusError {
				return snap
			}
		case <-deadline:
			t.Fatal("engine never settled")
		}
	}
}

func pageOf(total, pageSize int, ids ...string) *Result {
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, Item(`{"id":"`+id+`"}`))
	}
	return &Result{Page: 1, PageSize: pageSize, Total: total, Items: items}
}

func TestFilterChangeResetsPage(t *testing.T) {
	var calls atomic.Int64
	var lastQuery atomic.Value
	eng, updates := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		calls.Add(1)
		lastQuery.Store(query)
		return pageOf(37, 12, "a"), nil
	})

	if err := eng.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	waitSettled(t, updates)
	if err := eng.SetPage(3); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	waitSettled(t, updates)

	if err := eng.SetFilter("city", "Beirut"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	snap := waitSettled(t, updates)

	if snap.Page != 1 {
		t.Fatalf("page after filter change = %d, want 1", snap.Page)
	}
	query := lastQuery.Load().(url.Values)
	if got := query.Get("page"); got != "1" {
		t.Fatalf("query page = %q, want 1", got)
	}
	if got := query.Get("city"); got != "Beirut" {
		t.Fatalf("query city = %q", got)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("fetch count = %d, want 3", got)
	}
}

func TestUnknownFilterKeyRejected(t *testing.T) {
	var calls atomic.Int64
	eng, _ := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		calls.Add(1)
		return pageOf(0, 12), nil
	})

	err := eng.SetFilter("color", "red")
	if !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("err = %v, want ErrUnknownFilter", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("rejected filter must not trigger a fetch")
	}
}

func TestStaleResponseDropped(t *testing.T) {
	stale := make(chan struct{}, 4)
	firstStarted := make(chan struct{})
	var call atomic.Int64

	eng, updates := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		if call.Add(1) == 1 {
			close(firstStarted)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return pageOf(1, 12, "fresh"), nil
	}, WithOnStaleDrop(func() { stale <- struct{}{} }))

	if err := eng.SetFilter("city", "A"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	<-firstStarted
	if err := eng.SetFilter("city", "B"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}

	snap := waitSettled(t, updates)
	if snap.Status != StatusReady {
		t.Fatalf("status = %v, want ready", snap.Status)
	}
	if snap.Filters["city"] != "B" {
		t.Fatalf("filters = %v, want city=B", snap.Filters)
	}
	meta, err := snap.Result.Items[0].Meta()
	if err != nil || meta.ID != "fresh" {
		t.Fatalf("result item = %v (%v), want fresh", meta, err)
	}

	select {
	case <-stale:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded response was never reported dropped")
	}
	if got := eng.Snapshot(); got.Filters["city"] != "B" || got.Status != StatusReady {
		t.Fatalf("stale response overwrote state: %+v", got)
	}
}

func TestSetPageClamping(t *testing.T) {
	var calls atomic.Int64
	eng, updates := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		calls.Add(1)
		return pageOf(37, 12, "a"), nil
	})
	if err := eng.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	waitSettled(t, updates)

	// 37 items at 12 per page is 4 pages.
	if err := eng.SetPage(9); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if snap := waitSettled(t, updates); snap.Page != 4 {
		t.Fatalf("page = %d, want clamp to 4", snap.Page)
	}

	if err := eng.SetPage(0); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if snap := waitSettled(t, updates); snap.Page != 1 {
		t.Fatalf("page = %d, want clamp to 1", snap.Page)
	}

	before := calls.Load()
	if err := eng.SetPage(1); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if calls.Load() != before {
		t.Fatal("unchanged page must not refetch")
	}
}

func TestErrorClearsResult(t *testing.T) {
	var fail atomic.Bool
	eng, updates := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		if fail.Load() {
			return nil, errors.New("backend down")
		}
		return pageOf(1, 12, "a"), nil
	})

	if err := eng.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap := waitSettled(t, updates); snap.Result == nil {
		t.Fatal("expected a result before the failure")
	}

	fail.Store(true)
	if err := eng.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := waitSettled(t, updates)
	if snap.Status != StatusError || snap.Err == nil {
		t.Fatalf("status = %v err = %v, want error state", snap.Status, snap.Err)
	}
	if snap.Result != nil {
		t.Fatal("error state must not keep the previous page visible")
	}
}

func TestClearFiltersSingleFetch(t *testing.T) {
	var calls atomic.Int64
	eng, updates := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		calls.Add(1)
		return pageOf(1, 12, "a"), nil
	})

	for _, kv := range [][2]string{{"city", "Tripoli"}, {"ageGroup", "U13"}, {"type", "Academy"}} {
		if err := eng.SetFilter(kv[0], kv[1]); err != nil {
			t.Fatalf("SetFilter(%s): %v", kv[0], err)
		}
		waitSettled(t, updates)
	}

	before := calls.Load()
	if err := eng.ClearFilters(); err != nil {
		t.Fatalf("ClearFilters: %v", err)
	}
	snap := waitSettled(t, updates)
	if got := calls.Load() - before; got != 1 {
		t.Fatalf("clearing three filters ran %d fetches, want 1", got)
	}
	if len(snap.Filters) != 0 || snap.Page != 1 {
		t.Fatalf("snapshot after clear = %+v", snap)
	}
}

func TestInitSeedsFromValues(t *testing.T) {
	var lastQuery atomic.Value
	eng, updates := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		lastQuery.Store(query)
		return pageOf(100, 12, "a"), nil
	})

	seed := url.Values{}
	seed.Set("city", "Saida")
	seed.Set("page", "3")
	seed.Set("sortDir", "asc")
	seed.Set("ignored", "x")
	if err := eng.Init(seed); err != nil {
		t.Fatalf("Init: %v", err)
	}
	snap := waitSettled(t, updates)

	if snap.Page != 3 || snap.Filters["city"] != "Saida" || snap.SortDir != "asc" {
		t.Fatalf("snapshot = %+v", snap)
	}
	query := lastQuery.Load().(url.Values)
	if _, ok := query["ignored"]; ok {
		t.Fatal("keys outside the schema must not be sent")
	}

	roundTrip := eng.Values()
	if roundTrip.Get("city") != "Saida" || roundTrip.Get("page") != "3" {
		t.Fatalf("Values() = %v", roundTrip)
	}
}

func TestApplyItemUpdate(t *testing.T) {
	eng, updates := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		return &Result{Page: 1, PageSize: 12, Total: 2, Items: []Item{
			Item(`{"id":"p1","isRegistered":false}`),
			Item(`{"id":"p2","isRegistered":false}`),
		}}, nil
	})
	if err := eng.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	waitSettled(t, updates)

	if err := eng.ApplyItemUpdate(json.RawMessage(`{"id":"p2","isRegistered":true}`)); err != nil {
		t.Fatalf("ApplyItemUpdate: %v", err)
	}
	snap := eng.Snapshot()
	meta, err := snap.Result.Items[1].Meta()
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if !meta.IsRegistered {
		t.Fatal("confirmed update was not applied to the page item")
	}
	if other, _ := snap.Result.Items[0].Meta(); other.IsRegistered {
		t.Fatal("unrelated item changed")
	}

	// An id no longer on the page is ignored.
	if err := eng.ApplyItemUpdate(json.RawMessage(`{"id":"gone","isRegistered":true}`)); err != nil {
		t.Fatalf("ApplyItemUpdate(missing): %v", err)
	}
}

func TestCloseRejectsFurtherUse(t *testing.T) {
	eng, _ := newTestEngine(t, func(ctx context.Context, query url.Values) (*Result, error) {
		return pageOf(0, 12), nil
	})
	eng.Close()
	if err := eng.SetFilter("city", "x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if err := eng.Refresh(); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	eng.Close()
}
