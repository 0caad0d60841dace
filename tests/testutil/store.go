package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/sharedspace/internal/model"
	"github.com/nhle/sharedspace/internal/store"
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

// SeedUser creates a user with the given email and display name.
func SeedUser(t *testing.T, s store.Store, email, displayName string) model.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), model.User{Email: email, DisplayName: displayName})
	if err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return u
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
