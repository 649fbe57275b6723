package searchcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bookmatch/internal/match"
)

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreAndLookup(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	candidates := []match.Candidate{
		{Title: "Circe", Author: "Madeline Miller", PriceCents: 749, URL: "/products/circe"},
	}
	if err := store.Store(ctx, "Circe", candidates); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, hit, err := store.Lookup(ctx, "  circe ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !hit {
		t.Fatal("normalized key did not hit")
	}
	if len(got) != 1 || got[0] != candidates[0] {
		t.Errorf("Lookup = %+v, want %+v", got, candidates)
	}
}

func TestLookupMiss(t *testing.T) {
	store := openTestStore(t, 0)
	_, hit, err := store.Lookup(context.Background(), "never stored")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit {
		t.Fatal("missing key reported as hit")
	}
}

func TestEmptyResultCached(t *testing.T) {
	// A search that returned nothing is still a valid cache entry; it
	// must hit, not fall through to the network.
	store := openTestStore(t, 0)
	ctx := context.Background()

	if err := store.Store(ctx, "nonexistent book", nil); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, hit, err := store.Lookup(ctx, "nonexistent book")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !hit {
		t.Fatal("cached empty result did not hit")
	}
	if len(got) != 0 {
		t.Errorf("Lookup = %+v, want empty", got)
	}
}

func TestTTLExpiry(t *testing.T) {
	store := openTestStore(t, time.Hour)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }
	if err := store.Store(ctx, "circe", []match.Candidate{{Title: "Circe"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	if _, hit, _ := store.Lookup(ctx, "circe"); !hit {
		t.Error("entry expired before its TTL")
	}

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, hit, _ := store.Lookup(ctx, "circe"); hit {
		t.Error("entry survived past its TTL")
	}
}

func TestStoreReplaces(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	if err := store.Store(ctx, "circe", []match.Candidate{{Title: "Old"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := store.Store(ctx, "circe", []match.Candidate{{Title: "New"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, hit, err := store.Lookup(ctx, "circe")
	if err != nil || !hit {
		t.Fatalf("Lookup: hit=%v err=%v", hit, err)
	}
	if len(got) != 1 || got[0].Title != "New" {
		t.Errorf("Lookup = %+v, want replacement entry", got)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestClear(t *testing.T) {
	store := openTestStore(t, 0)
	ctx := context.Background()

	for _, query := range []string{"a", "b", "c"} {
		if err := store.Store(ctx, query, nil); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 3 {
		t.Errorf("Clear removed %d, want 3", removed)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("Count after clear = %d", count)
	}
}

func TestNilStoreIsDisabled(t *testing.T) {
	var store *Store
	ctx := context.Background()

	if err := store.Store(ctx, "circe", nil); err != nil {
		t.Errorf("nil Store.Store: %v", err)
	}
	if _, hit, err := store.Lookup(ctx, "circe"); hit || err != nil {
		t.Errorf("nil Store.Lookup: hit=%v err=%v", hit, err)
	}
	if _, err := store.Clear(ctx); err != nil {
		t.Errorf("nil Store.Clear: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("nil Store.Close: %v", err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	ctx := context.Background()

	store, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Store(ctx, "circe", []match.Candidate{{Title: "Circe"}}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, hit, err := reopened.Lookup(ctx, "circe"); !hit || err != nil {
		t.Errorf("entry lost across reopen: hit=%v err=%v", hit, err)
	}
}

func TestKey(t *testing.T) {
	if got := Key("  The   Way of Kings "); got != "the way of kings" {
		t.Errorf("Key = %q", got)
	}
}
