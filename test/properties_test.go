package test

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	wfaclient "github.com/wfa-platform/wfaclient"
	"github.com/wfa-platform/wfaclient/capability"
	"github.com/wfa-platform/wfaclient/catalog"
	"github.com/wfa-platform/wfaclient/session"
)

// End-to-end guarantees of the public API, each verified over the wire
// against the fake backend.

func TestLoginAtomicity(t *testing.T) {
	srv := newBackend(t)
	client := newClient(t, srv, nil)
	ctx := context.Background()

	check := func(label string) {
		t.Helper()
		sess := client.Session().Current()
		hasToken, hasUser := sess.Token != "", sess.User != nil
		if hasToken != hasUser {
			t.Fatalf("%s: partial session observed: token=%v user=%v", label, hasToken, hasUser)
		}
	}

	check("initial")
	if err := client.Login(ctx, "client@example.com", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	check("after failed login")
	if err := client.Login(ctx, "client@example.com", "client-pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	check("after successful login")
	if client.Session().State() != session.StateLoggedIn {
		t.Fatal("should be logged in")
	}
}

func TestLogoutIdempotence(t *testing.T) {
	srv := newBackend(t)
	client := newClient(t, srv, nil)
	ctx := context.Background()

	if err := client.Login(ctx, "client@example.com", "client-pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := client.Logout(ctx); err != nil {
		t.Fatalf("first Logout: %v", err)
	}
	once := client.Session().Current()

	if err := client.Logout(ctx); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	twice := client.Session().Current()

	if once.Token != "" || twice.Token != "" || once.User != nil || twice.User != nil {
		t.Fatalf("logout state differs or is not empty: %+v vs %+v", once, twice)
	}
}

func TestFilterResetInvariant(t *testing.T) {
	srv := newBackend(t)
	client := newClient(t, srv, nil)
	updates, onUpdate := collectUpdates()
	engine := client.NewProgramEngine(onUpdate)
	defer engine.Close()

	if err := engine.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	waitSettled(t, updates)
	if err := engine.SetPage(2); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	waitSettled(t, updates)

	for _, kv := range [][2]string{{"city", "Beirut"}, {"type", "Camp"}, {"ageGroup", "U13"}, {"city", ""}} {
		if err := engine.SetFilter(kv[0], kv[1]); err != nil {
			t.Fatalf("SetFilter(%s): %v", kv[0], err)
		}
		if page := engine.Snapshot().Page; page != 1 {
			t.Fatalf("page after SetFilter(%s) = %d, want 1", kv[0], page)
		}
		waitSettled(t, updates)
	}
}

func TestStaleResponseSuppression(t *testing.T) {
	srv := newBackend(t)
	client := newClient(t, srv, nil)

	var staleDrops atomic.Int64
	updates, onUpdate := collectUpdates()
	engine := client.NewProgramEngine(onUpdate,
		catalog.WithOnStaleDrop(func() { staleDrops.Add(1) }))
	defer engine.Close()

	// R1 is slow; R2, triggered afterwards, is fast and must win even
	// though R1 resolves later.
	srv.Slow(300 * time.Millisecond)
	if err := engine.SetFilter("city", "Tripoli"); err != nil {
		t.Fatalf("SetFilter R1: %v", err)
	}
	srv.Slow(0)
	if err := engine.SetFilter("city", "Beirut"); err != nil {
		t.Fatalf("SetFilter R2: %v", err)
	}

	snap := waitSettled(t, updates)
	if snap.Filters["city"] != "Beirut" {
		t.Fatalf("settled filters = %v, want city=Beirut", snap.Filters)
	}

	deadline := time.After(5 * time.Second)
	for staleDrops.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("R1 was never reported dropped")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	if got := engine.Snapshot(); got.Filters["city"] != "Beirut" || got.Status != catalog.StatusReady {
		t.Fatalf("R1 overwrote R2: %+v", got)
	}
}

func TestQueryOmission(t *testing.T) {
	srv := newBackend(t)
	client := newClient(t, srv, nil)
	updates, onUpdate := collectUpdates()
	engine := client.NewProgramEngine(onUpdate)
	defer engine.Close()

	if err := engine.SetFilter("city", "Beirut"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	waitSettled(t, updates)
	if err := engine.SetFilter("city", ""); err != nil {
		t.Fatalf("SetFilter clear: %v", err)
	}
	waitSettled(t, updates)

	if _, present := engine.Values()["city"]; present {
		t.Fatalf("cleared filter still serialized: %v", engine.Values())
	}
}

func TestPaginationClamping(t *testing.T) {
	srv := newBackend(t)
	client := newClient(t, srv, nil)
	updates, onUpdate := collectUpdates()
	// 37 seeded academies at 12 per page.
	engine := client.NewAcademyEngine(onUpdate)
	defer engine.Close()

	if err := engine.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := waitSettled(t, updates)
	if snap.Result.Total != 37 {
		t.Fatalf("total = %d, want 37", snap.Result.Total)
	}
	totalPages := snap.TotalPages()

	if err := engine.SetPage(0); err != nil {
		t.Fatalf("SetPage(0): %v", err)
	}
	if page := engine.Snapshot().Page; page < 1 || page > totalPages {
		t.Fatalf("SetPage(0) left page = %d", page)
	}

	if err := engine.SetPage(totalPages + 5); err != nil {
		t.Fatalf("SetPage(beyond): %v", err)
	}
	snap = waitSettled(t, updates)
	if snap.Page < 1 || snap.Page > totalPages {
		t.Fatalf("SetPage(totalPages+5) left page = %d", snap.Page)
	}
	if got := snap.Result.Total; got != 37 {
		t.Fatalf("clamped page fetched total = %d", got)
	}
}

func TestRoleGatedActions(t *testing.T) {
	sameActions := func(set capability.ActionSet, want ...capability.Action) bool {
		got := set.List()
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}

	client := capability.Actions(capability.RoleClient, false)
	if !sameActions(client, capability.ActionView, capability.ActionRegister) {
		t.Fatalf("client actions = %v", client.List())
	}
	if client.RequiresLogin(capability.ActionRegister) {
		t.Fatal("logged-in client must not be redirected to login")
	}

	registered := capability.Actions(capability.RoleClient, true)
	if !sameActions(registered, capability.ActionView) {
		t.Fatalf("registered client actions = %v", registered.List())
	}

	admin := capability.Actions(capability.RoleAdmin, false)
	if !sameActions(admin, capability.ActionView, capability.ActionUpdate, capability.ActionDelete) {
		t.Fatalf("admin actions = %v", admin.List())
	}

	guest := capability.Actions(capability.RoleGuest, false)
	if !guest.Has(capability.ActionView) {
		t.Fatal("guest must see the detail view")
	}
	if !guest.RequiresLogin(capability.ActionRegister) {
		t.Fatal("guest clicking register must be redirected to login")
	}
	if guest.Has(capability.ActionUpdate) || guest.Has(capability.ActionDelete) {
		t.Fatalf("guest actions = %v", guest.List())
	}
}

func TestEndToEndQueryString(t *testing.T) {
	srv := newBackend(t)
	// Two full pages of Beirut academy programs so page 2 is a real page.
	for i := 0; i < 20; i++ {
		srv.SeedProgram(wfaclient.Program{
			Title:        fmt.Sprintf("Beirut Elite %02d", i),
			Type:         "Academy",
			City:         "Beirut",
			AgeGroupCode: "U13",
			StartDate:    startDate(i),
		})
	}
	client := newClient(t, srv, nil)
	updates, onUpdate := collectUpdates()
	engine := client.NewProgramEngine(onUpdate)
	defer engine.Close()

	seed := url.Values{}
	seed.Set("city", "Beirut")
	seed.Set("type", "Academy")
	seed.Set("page", "2")
	if err := engine.Init(seed); err != nil {
		t.Fatalf("Init: %v", err)
	}
	snap := waitSettled(t, updates)
	if snap.Status != catalog.StatusReady {
		t.Fatalf("status = %v, err = %q", snap.Status, snap.Err)
	}
	if snap.Result.Page != 2 {
		t.Fatalf("served page = %d, want 2", snap.Result.Page)
	}

	values := engine.Values()
	want := map[string]string{
		"city":     "Beirut",
		"type":     "Academy",
		"page":     "2",
		"pageSize": "12",
		"sortBy":   "startDate",
		"sortDir":  "desc",
	}
	for key, value := range want {
		if got := values.Get(key); got != value {
			t.Errorf("%s = %q, want %q", key, got, value)
		}
	}
	if _, present := values["ageGroup"]; present {
		t.Error("unset ageGroup must not appear in the query")
	}
	if len(values) != len(want) {
		t.Fatalf("query has extra keys: %v", values)
	}
}
