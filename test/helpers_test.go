package test

import (
	"fmt"
	"testing"
	"time"

	wfaclient "github.com/wfa-platform/wfaclient"
	"github.com/wfa-platform/wfaclient/catalog"
	"github.com/wfa-platform/wfaclient/session"
	"github.com/wfa-platform/wfaclient/wfatest"
)

func newBackend(t *testing.T) *wfatest.Server {
	t.Helper()
	srv := wfatest.NewServer()
	t.Cleanup(srv.Close)

	srv.SeedUser("client@example.com", "client-pass", "CLIENT", "Carla", "Client")
	srv.SeedUser("admin@example.com", "admin-pass", "ADMIN", "Ana", "Admin")

	cities := []string{"Beirut", "Tripoli", "Saida"}
	for i := 0; i < 37; i++ {
		srv.SeedAcademy(wfaclient.Academy{
			Name:        academyName(i),
			City:        cities[i%len(cities)],
			CountryCode: "LB",
		})
		srv.SeedProgram(wfaclient.Program{
			Title:        programTitle(i),
			Type:         []string{"Academy", "Camp"}[i%2],
			City:         cities[i%len(cities)],
			AgeGroupCode: []string{"U11", "U13", "U15"}[i%3],
			StartDate:    startDate(i),
		})
	}
	return srv
}

func academyName(i int) string  { return fmt.Sprintf("Academy %02d", i) }
func programTitle(i int) string { return fmt.Sprintf("Program %02d", i) }
func startDate(i int) string    { return fmt.Sprintf("2026-%02d-01", i%12+1) }

func newClient(t *testing.T, srv *wfatest.Server, storage session.Storage) *wfaclient.Client {
	t.Helper()
	client, err := wfaclient.New().
		WithBaseURL(srv.URL()).
		WithTokenStorage(storage).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func collectUpdates() (chan catalog.Snapshot, catalog.Option) {
	updates := make(chan catalog.Snapshot, 64)
	return updates, catalog.WithOnUpdate(func(s catalog.Snapshot) { updates <- s })
}

func waitSettled(t *testing.T, updates chan catalog.Snapshot) catalog.Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Status == catalog.StatusReady || snap.Status == catalog.StatusError {
				return snap
			}
		case <-deadline:
			t.Fatal("engine never settled")
		}
	}
}
