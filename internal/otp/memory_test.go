package otp

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(4, func() time.Time { return current })

	if err := store.SaveCode(ctx, "a@example.edu", "hash-1", time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	hash, ok, err := store.LoadCode(ctx, "a@example.edu")
	if err != nil || !ok || hash != "hash-1" {
		t.Fatalf("load = %q %v %v", hash, ok, err)
	}

	deleted, err := store.DeleteCode(ctx, "a@example.edu")
	if err != nil || !deleted {
		t.Fatalf("first delete = %v %v, want true", deleted, err)
	}
	deleted, err = store.DeleteCode(ctx, "a@example.edu")
	if err != nil || deleted {
		t.Fatalf("second delete = %v %v, want false", deleted, err)
	}
}

func TestMemoryStoreExpiresCodes(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(4, func() time.Time { return current })

	_ = store.SaveCode(ctx, "a@example.edu", "hash-1", time.Minute)
	current = current.Add(time.Minute)

	if _, ok, _ := store.LoadCode(ctx, "a@example.edu"); ok {
		t.Fatal("expected code to expire at its deadline")
	}
	if deleted, _ := store.DeleteCode(ctx, "a@example.edu"); deleted {
		t.Fatal("expired code must not be reported as deleted")
	}
}

func TestMemoryStorePurgeAndCapacity(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(2, func() time.Time { return current })

	_ = store.SaveCode(ctx, "a@example.edu", "h", time.Minute)
	_ = store.SaveCode(ctx, "b@example.edu", "h", time.Hour)
	if err := store.SaveCode(ctx, "c@example.edu", "h", time.Minute); !errors.Is(err, ErrStoreFull) {
		t.Fatalf("expected ErrStoreFull, got %v", err)
	}
	if err := store.SaveCode(ctx, "a@example.edu", "h2", time.Minute); err != nil {
		t.Fatalf("replacing an existing code must succeed: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if removed := store.Purge(); removed != 1 {
		t.Fatalf("Purge() = %d, want 1", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
	if err := store.SaveCode(ctx, "c@example.edu", "h", time.Minute); err != nil {
		t.Fatalf("save after purge: %v", err)
	}
}
