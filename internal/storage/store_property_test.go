package storage

import (
	"math/rand"
	"testing"
)

// TestKeyedStore_Property_LenMatchesEntries checks that the incremental count
// always equals the count recomputed from the mapping.
func TestKeyedStore_Property_LenMatchesEntries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	store := newTestStore(t)

	puts, removes := 0, 0
	for i := 0; i < 2000; i++ {
		var item any
		if rng.Intn(2) == 0 {
			item = map[string]any{"id": rng.Intn(50) + 1}
		} else {
			item = []int{rng.Intn(10), rng.Intn(3)}
		}

		if rng.Intn(3) == 0 {
			if _, ok := store.Remove(item); ok {
				removes++
			}
		} else if _, err := store.Put(item); err == nil {
			puts++
		} else if !IsKeyCollision(err) {
			t.Fatalf("Unexpected error: %v", err)
		}

		if got, want := store.Len(), recount(store); got != want {
			t.Fatalf("Step %d: Len()=%d, recomputed %d", i, got, want)
		}
	}

	if store.Len() != puts-removes {
		t.Errorf("Expected Len %d (puts %d - removes %d), got %d", puts-removes, puts, removes, store.Len())
	}
}

// TestKeyedStore_Property_DistinctIdentitiesRoundTrip tests that every
// distinct identity reads back the item stored under it.
func TestKeyedStore_Property_DistinctIdentitiesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	store := newTestStore(t)

	items := make(map[int]map[string]any)
	for len(items) < 200 {
		id := rng.Intn(1_000_000) + 1
		if _, seen := items[id]; seen {
			continue
		}
		item := map[string]any{"id": id, "payload": rng.Int63()}
		if _, err := store.Put(item); err != nil {
			t.Fatalf("Put(%d) failed: %v", id, err)
		}
		items[id] = item
	}

	for id, want := range items {
		got, ok := store.Get(map[string]any{"id": id})
		if !ok {
			t.Fatalf("Get(%d) not found", id)
		}
		if got.(map[string]any)["payload"] != want["payload"] {
			t.Errorf("Get(%d) returned wrong item", id)
		}
	}
}

// TestKeyedStore_Property_BucketLIFO tests that a bucket drains in reverse
// insertion order while Get keeps returning the head.
func TestKeyedStore_Property_BucketLIFO(t *testing.T) {
	store := newTestStore(t)

	const n = 25
	pushed := make([]*[]string, n)
	for i := range pushed {
		v := []string{"same"}
		pushed[i] = &v
		if _, err := store.Put(pushed[i]); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	for i := n - 1; i >= 0; i-- {
		head, ok := store.Get(pushed[0])
		if !ok || head != any(pushed[0]) {
			t.Fatalf("Expected head to stay the first item while %d remain", i+1)
		}
		removed, ok := store.Remove(pushed[0])
		if !ok {
			t.Fatalf("Remove failed with %d remaining", i+1)
		}
		if removed != any(pushed[i]) {
			t.Errorf("Expected item %d to be removed", i)
		}
	}

	if _, ok := store.Get(pushed[0]); ok {
		t.Error("Expected empty bucket to read as absent")
	}
}

func recount(s *KeyedStore) int {
	n := 0
	for k, e := range s.Entries() {
		if k.Kind == IdentityKey {
			n++
		} else {
			n += len(e.Bucket)
		}
	}
	return n
}
