// Package testdb provides migrated databases for tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vozhatapp/internal/database"
	"vozhatapp/internal/live"
)

// OpenSQLite returns a migrated database in a fresh temp file. It is closed
// when the test ends.
func OpenSQLite(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "vozhat_test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	db.Hub = live.NewHub(5*time.Second, nil)
	if err := db.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
