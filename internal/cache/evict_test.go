package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEvictRemovesOldestBeyondCapacity(t *testing.T) {
	store := newTestStoreWithOptions(t, Options{Root: t.TempDir(), Capacity: 3})
	ctx := context.Background()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	for i, word := range []string{"alpha", "beta", "gamma"} {
		writeEntryAt(t, store, word, base.Add(time.Duration(i)*time.Minute))
	}
	if err := store.Write(ctx, "delta", []byte("data")); err != nil {
		t.Fatalf("write error: %v", err)
	}

	assertEntries(t, store, "beta", "delta", "gamma")
}

func TestEvictNoopUnderCapacity(t *testing.T) {
	store := newTestStoreWithOptions(t, Options{Root: t.TempDir(), Capacity: 3})
	base := time.Now().Add(-time.Hour)
	writeEntryAt(t, store, "alpha", base)
	writeEntryAt(t, store, "beta", base.Add(time.Minute))

	stats := store.Evict(context.Background())
	if stats.Count != 2 {
		t.Fatalf("expected 2 entries counted, got %d", stats.Count)
	}
	if len(stats.Evicted) != 0 {
		t.Fatalf("no eviction expected under capacity, got %v", stats.Evicted)
	}
	if stats.Oldest.Unix() != base.Unix() {
		t.Fatalf("expected oldest %v, got %v", base.Unix(), stats.Oldest.Unix())
	}
}

func TestEvictRemovesAllTiedEntries(t *testing.T) {
	root := t.TempDir()
	seed := newTestStoreWithOptions(t, Options{Root: root})
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeEntryAt(t, seed, "alpha", base)
	writeEntryAt(t, seed, "beta", base.Add(500*time.Millisecond))
	writeEntryAt(t, seed, "gamma", base.Add(time.Minute))

	store := newTestStoreWithOptions(t, Options{Root: root, Capacity: 2})
	stats := store.Evict(context.Background())
	if len(stats.Evicted) != 2 {
		t.Fatalf("expected both tied entries evicted, got %v", stats.Evicted)
	}
	assertEntries(t, store, "gamma")
}

func TestEvictKeepsEntryBeingWritten(t *testing.T) {
	root := t.TempDir()
	seed := newTestStoreWithOptions(t, Options{Root: root})
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeEntryAt(t, seed, "alpha", base)
	writeEntryAt(t, seed, "beta", base)

	store := newTestStoreWithOptions(t, Options{Root: root, Capacity: 1})
	stats := store.evict(context.Background(), filepath.Join(root, "alpha"))
	if len(stats.Evicted) != 1 || stats.Evicted[0] != "beta" {
		t.Fatalf("expected only beta evicted, got %v", stats.Evicted)
	}
	assertEntries(t, store, "alpha")
}

func TestWriteBeyondCapacityEvictsOnePerWrite(t *testing.T) {
	const capacity = 200
	store := newTestStoreWithOptions(t, Options{Root: t.TempDir(), Capacity: capacity})
	ctx := context.Background()
	base := time.Now().Add(-24 * time.Hour).Truncate(time.Second)

	for i := 0; i < capacity+5; i++ {
		word := fmt.Sprintf("word%03d", i)
		if err := store.Write(ctx, word, []byte(word)); err != nil {
			t.Fatalf("write %s error: %v", word, err)
		}
		stamp := base.Add(time.Duration(i) * time.Second)
		if err := os.Chtimes(filepath.Join(store.Root(), word), stamp, stamp); err != nil {
			t.Fatalf("chtimes error: %v", err)
		}

		entries := countEntries(t, store)
		if i < capacity && entries != i+1 {
			t.Fatalf("after %d writes expected %d entries, got %d", i+1, i+1, entries)
		}
		if i >= capacity {
			if entries != capacity {
				t.Fatalf("after %d writes expected %d entries, got %d", i+1, capacity, entries)
			}
			evicted := fmt.Sprintf("word%03d", i-capacity)
			if _, err := os.Stat(filepath.Join(store.Root(), evicted)); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("expected %s to be evicted, stat err=%v", evicted, err)
			}
		}
	}
}

func TestEvictToleratesMissingRoot(t *testing.T) {
	store := newTestStoreWithOptions(t, Options{Root: filepath.Join(t.TempDir(), "absent")})
	stats := store.Evict(context.Background())
	if stats.Count != 0 {
		t.Fatalf("missing root should count zero entries, got %d", stats.Count)
	}
	var walkErr *WalkError
	if !errors.As(stats.Err, &walkErr) {
		t.Fatalf("expected WalkError, got %v", stats.Err)
	}
}

func writeEntryAt(t *testing.T, store *DiskStore, word string, at time.Time) {
	t.Helper()
	if err := store.Write(context.Background(), word, []byte(word)); err != nil {
		t.Fatalf("write %s error: %v", word, err)
	}
	if err := os.Chtimes(filepath.Join(store.Root(), word), at, at); err != nil {
		t.Fatalf("chtimes error: %v", err)
	}
}

func countEntries(t *testing.T, store *DiskStore) int {
	t.Helper()
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("readdir error: %v", err)
	}
	return len(entries)
}

func assertEntries(t *testing.T, store *DiskStore, want ...string) {
	t.Helper()
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		t.Fatalf("readdir error: %v", err)
	}
	if len(entries) != len(want) {
		t.Fatalf("expected entries %v, got %d entries", want, len(entries))
	}
	for i, entry := range entries {
		if entry.Name() != want[i] {
			t.Fatalf("expected entries %v, got %s at %d", want, entry.Name(), i)
		}
	}
}
