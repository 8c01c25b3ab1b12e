package testutil

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/nhle/rentwatch/internal/store"
)

// NewTestRepository creates an in-memory SQLiteRepository with all
// migrations applied. It automatically closes the repository when the
// test completes.
func NewTestRepository(t *testing.T) *store.SQLiteRepository {
	t.Helper()

	r, err := store.NewSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("creating test repository: %v", err)
	}

	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("closing test repository: %v", err)
		}
	})

	return r
}

// NewTestStore creates an empty NotificationStore backed by an
// in-memory repository and a silent logger.
func NewTestStore(t *testing.T) *store.NotificationStore {
	t.Helper()

	s, err := store.New(store.NewMemoryRepository(), zerolog.Nop())
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	return s
}
