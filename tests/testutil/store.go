package testutil

import (
	"context"
	"testing"

	"github.com/nhle/tempmail/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewSeededStore is NewTestStore with the given mailboxes remembered in
// order and the last one recorded as the last-used mailbox.
func NewSeededStore(t *testing.T, addresses ...string) *store.SQLiteStore {
	t.Helper()

	s := NewTestStore(t)
	ctx := context.Background()
	for _, addr := range addresses {
		if err := s.RememberMailbox(ctx, addr); err != nil {
			t.Fatalf("seeding mailbox %s: %v", addr, err)
		}
	}
	if n := len(addresses); n > 0 {
		if err := s.SetLastMailbox(ctx, addresses[n-1]); err != nil {
			t.Fatalf("seeding last mailbox: %v", err)
		}
	}
	return s
}
