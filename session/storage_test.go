package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", StorageKey)

	fs, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	if token, err := fs.Load(ctx); err != nil || token != "" {
		t.Fatalf("Load on missing file = %q, %v", token, err)
	}

	if err := fs.Save(ctx, "tok-123"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("token file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("token file mode = %o, want 0600", perm)
	}

	token, err := fs.Load(ctx)
	if err != nil || token != "tok-123" {
		t.Fatalf("Load = %q, %v", token, err)
	}

	if err := fs.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := fs.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	if token, _ := fs.Load(ctx); token != "" {
		t.Fatalf("token survived Clear: %q", token)
	}
}

func TestFileStorageEmptyPath(t *testing.T) {
	if _, err := NewFileStorage("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestRedisStorage(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)

	rs := NewRedisStorage(client, "wfa-test", 0)

	if token, err := rs.Load(ctx); err != nil || token != "" {
		t.Fatalf("Load on empty redis = %q, %v", token, err)
	}

	if err := rs.Save(ctx, "tok-redis"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mr.Exists("wfa-test:" + StorageKey) {
		t.Fatal("token not stored under the expected key")
	}

	token, err := rs.Load(ctx)
	if err != nil || token != "tok-redis" {
		t.Fatalf("Load = %q, %v", token, err)
	}

	if err := rs.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := rs.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	if token, _ := rs.Load(ctx); token != "" {
		t.Fatalf("token survived Clear: %q", token)
	}
}

func TestRedisStorageTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)

	rs := NewRedisStorage(client, "wfa-test", time.Minute)
	if err := rs.Save(ctx, "tok"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if token, err := rs.Load(ctx); err != nil || token != "" {
		t.Fatalf("expired token still readable: %q, %v", token, err)
	}
}

func TestRedisStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	rs := NewRedisStorage(client, "", 0)

	mr.Close()

	if _, err := rs.Load(ctx); err == nil {
		t.Fatal("expected error when redis is down")
	}
	if err := rs.Save(ctx, "tok"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
