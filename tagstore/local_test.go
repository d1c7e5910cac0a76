package tagstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func keysFor(t *testing.T, s Store, tags ...string) map[string][]any {
	t.Helper()
	out, err := s.KeysForTags(context.Background(), tags)
	if err != nil {
		t.Fatalf("KeysForTags: %v", err)
	}
	return out
}

func containsKey(keys []any, want any) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}

// TestLocalAddThenLookup verifies the monotonic union property: added
// references are returned grouped under their cache name, for any of the
// tags they were added under.
func TestLocalAddThenLookup(t *testing.T) {
	ctx := context.Background()
	s := NewLocal()

	if err := s.AddMappings(ctx, []string{"user:1", "role:admin"}, "users", 42); err != nil {
		t.Fatalf("AddMappings: %v", err)
	}

	got := keysFor(t, s, "role:admin")
	if len(got) != 1 || len(got["users"]) != 1 || !containsKey(got["users"], 42) {
		t.Fatalf("expected {users: [42]}, got %v", got)
	}

	// same reference reachable through the other tag
	got = keysFor(t, s, "user:1")
	if !containsKey(got["users"], 42) {
		t.Fatalf("expected 42 under user:1, got %v", got)
	}

	// union across tags and caches, deduplicated
	if err := s.AddMappings(ctx, []string{"role:admin"}, "orders", 7); err != nil {
		t.Fatalf("AddMappings: %v", err)
	}
	if err := s.AddMappings(ctx, []string{"role:admin"}, "users", 42); err != nil { // duplicate
		t.Fatalf("AddMappings: %v", err)
	}
	got = keysFor(t, s, "role:admin", "user:1")
	if len(got["users"]) != 1 || len(got["orders"]) != 1 {
		t.Fatalf("expected deduplicated union, got %v", got)
	}
}

// TestLocalLookupIdempotent ensures lookups do not mutate the index.
func TestLocalLookupIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewLocal()
	if err := s.AddMappings(ctx, []string{"t"}, "c", "k"); err != nil {
		t.Fatal(err)
	}

	first := keysFor(t, s, "t")
	second := keysFor(t, s, "t")
	if len(first["c"]) != 1 || len(second["c"]) != 1 || first["c"][0] != second["c"][0] {
		t.Fatalf("lookup not idempotent: %v then %v", first, second)
	}
}

// TestLocalRemoveTag verifies removal drops the whole tag without touching
// other tags, and that removing an absent tag is a no-op.
func TestLocalRemoveTag(t *testing.T) {
	ctx := context.Background()
	s := NewLocal()
	if err := s.AddMappings(ctx, []string{"a", "b"}, "c", 1); err != nil {
		t.Fatal(err)
	}

	if err := s.RemoveTag(ctx, "a"); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	if got := keysFor(t, s, "a"); len(got) != 0 {
		t.Fatalf("removed tag still resolves: %v", got)
	}
	if got := keysFor(t, s, "b"); !containsKey(got["c"], 1) {
		t.Fatalf("unrelated tag affected: %v", got)
	}

	// idempotent
	if err := s.RemoveTag(ctx, "a"); err != nil {
		t.Fatalf("RemoveTag absent: %v", err)
	}
	if err := s.RemoveTag(ctx, "never-existed"); err != nil {
		t.Fatalf("RemoveTag never-existed: %v", err)
	}
}

// TestLocalEmptyTagsNoop checks AddMappings with no tags never fails and
// records nothing.
func TestLocalEmptyTagsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewLocal()
	if err := s.AddMappings(ctx, nil, "c", 1); err != nil {
		t.Fatalf("AddMappings(nil): %v", err)
	}
	if got := keysFor(t, s); len(got) != 0 {
		t.Fatalf("expected empty index, got %v", got)
	}
}

// TestLocalConcurrentAddsNoLostUpdates runs N concurrent writers adding
// disjoint references under one tag; all N must be present afterwards.
func TestLocalConcurrentAddsNoLostUpdates(t *testing.T) {
	const n = 64
	ctx := context.Background()
	s := NewLocal()

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if err := s.AddMappings(ctx, []string{"shared"}, "c", i); err != nil {
				t.Errorf("AddMappings(%d): %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got := keysFor(t, s, "shared")
	if len(got["c"]) != n {
		t.Fatalf("lost updates: want %d refs, got %d", n, len(got["c"]))
	}
	for i := 0; i < n; i++ {
		if !containsKey(got["c"], i) {
			t.Fatalf("missing ref %d", i)
		}
	}
}

// TestLocalStructuredKeys checks structural equality of comparable keys.
func TestLocalStructuredKeys(t *testing.T) {
	type orderKey struct {
		Region string
		ID     int
	}
	ctx := context.Background()
	s := NewLocal()

	k := orderKey{Region: "eu", ID: 7}
	if err := s.AddMappings(ctx, []string{"order:7"}, "orders", k); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMappings(ctx, []string{"order:7"}, "orders", orderKey{Region: "eu", ID: 7}); err != nil {
		t.Fatal(err)
	}

	got := keysFor(t, s, "order:7")
	if len(got["orders"]) != 1 {
		t.Fatalf("structurally equal keys not deduplicated: %v", got)
	}
	if fmt.Sprint(got["orders"][0]) != fmt.Sprint(k) {
		t.Fatalf("unexpected key back: %v", got["orders"][0])
	}
}
