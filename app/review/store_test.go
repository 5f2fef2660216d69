package review

import (
	"fmt"
	"testing"
)

func TestPublishedStoreMarkAndCheck(t *testing.T) {
	store := NewPublishedStore()

	if store.IsPublished("review-1") {
		t.Error("Expected empty store to report review-1 as not published")
	}

	store.MarkPublished("review-1")
	if !store.IsPublished("review-1") {
		t.Error("Expected review-1 to be published after marking")
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 published review, got: %d", store.Len())
	}
}

func TestPublishedStoreEmptyID(t *testing.T) {
	store := NewPublishedStore()
	store.MarkPublished("")

	if store.Len() != 0 {
		t.Errorf("Expected empty ID to be ignored, got %d entries", store.Len())
	}

	store.MarkPublished("review-1")
	if store.IsPublished("") {
		t.Error("Expected empty ID to never be published")
	}
}

func TestPublishedStoreCapacity(t *testing.T) {
	store := NewPublishedStore()

	for i := 0; i < PublishedLimit*3; i++ {
		id := fmt.Sprintf("review-%d", i)
		store.MarkPublished(id)

		if store.Len() > PublishedLimit {
			t.Fatalf("Expected at most %d entries, got: %d", PublishedLimit, store.Len())
		}
		if !store.IsPublished(id) {
			t.Fatalf("Expected %s to be published immediately after marking", id)
		}
	}

	if store.Len() != PublishedLimit {
		t.Errorf("Expected %d entries, got: %d", PublishedLimit, store.Len())
	}

	// Oldest entries are evicted first.
	if store.IsPublished("review-0") {
		t.Error("Expected review-0 to be evicted")
	}
	last := fmt.Sprintf("review-%d", PublishedLimit*3-1)
	if ids := store.IDs(); ids[0] != last {
		t.Errorf("Expected most recent ID %s first, got: %s", last, ids[0])
	}
	oldestKept := fmt.Sprintf("review-%d", PublishedLimit*2)
	if ids := store.IDs(); ids[len(ids)-1] != oldestKept {
		t.Errorf("Expected oldest kept ID %s last, got: %s", oldestKept, ids[len(ids)-1])
	}
}

func TestPublishedStoreIdempotent(t *testing.T) {
	store := NewPublishedStore()
	store.MarkPublished("a")
	store.MarkPublished("b")
	store.MarkPublished("a")

	ids := store.IDs()
	if len(ids) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(ids))
	}
	if ids[0] != "b" || ids[1] != "a" {
		t.Errorf("Expected order [b a], got: %v", ids)
	}
}

func TestPublishedStoreReset(t *testing.T) {
	store := NewPublishedStore()
	for _, id := range []string{"a", "b", "c"} {
		store.MarkPublished(id)
	}

	store.Reset()

	for _, id := range []string{"a", "b", "c"} {
		if store.IsPublished(id) {
			t.Errorf("Expected %s to be forgotten after reset", id)
		}
	}
	if store.Len() != 0 {
		t.Errorf("Expected empty store after reset, got: %d", store.Len())
	}
}

func TestPublishedStoreIDsIsCopy(t *testing.T) {
	store := NewPublishedStore()
	store.MarkPublished("a")

	ids := store.IDs()
	ids[0] = "mutated"

	if !store.IsPublished("a") {
		t.Error("Expected IDs to return a copy")
	}
}

func TestPublishedStoreTouch(t *testing.T) {
	store := NewPublishedStore()
	store.MarkPublished("a")
	store.MarkPublished("b")
	store.MarkPublished("c")

	store.Touch("a")
	ids := store.IDs()
	if ids[0] != "a" || ids[1] != "c" || ids[2] != "b" {
		t.Errorf("Expected [a c b], got: %v", ids)
	}

	store.Touch("d")
	if store.IDs()[0] != "d" || store.Len() != 4 {
		t.Errorf("Expected touch to insert missing id at the front, got: %v", store.IDs())
	}

	store.Touch("")
	if store.Len() != 4 {
		t.Errorf("Expected empty id to be ignored, got: %d entries", store.Len())
	}
}
