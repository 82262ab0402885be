package database

import (
	"path/filepath"
	"testing"
)

// NewTestDB opens a migrated database under t.TempDir.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
