package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/booklore-app/booklore/internal/book"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedContainers creates library 1 ("Fiction"), library 2 ("Comics") and
// shelves 1 ("Favourites") and 2 ("To Read").
func seedContainers(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, lib := range []book.Library{{ID: 1, Name: "Fiction"}, {ID: 2, Name: "Comics"}} {
		if err := s.PutLibrary(ctx, lib); err != nil {
			t.Fatalf("PutLibrary() failed: %v", err)
		}
	}
	for _, sh := range []book.Shelf{{ID: 1, Name: "Favourites"}, {ID: 2, Name: "To Read"}} {
		if err := s.PutShelf(ctx, sh); err != nil {
			t.Fatalf("PutShelf() failed: %v", err)
		}
	}
}

const readShelfJSON = `{"type":"group","join":"and","rules":[{"field":"readStatus","operator":"equals","value":"READ"}]}`

func sqlNull() sql.NullInt64 { return sql.NullInt64{} }

func sqlInt(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }
