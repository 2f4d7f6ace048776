package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vozhatapp/internal/live"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "camp.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func insertChild(t *testing.T, db *DB, name string) int64 {
	t.Helper()
	id, err := db.ExecReturningID(context.Background(),
		"INSERT INTO children (name, last_name, age, squad_name, created_at) VALUES (?, ?, ?, ?, ?)",
		name, "Test", 10, "Eagles", ToMillis(time.Now()))
	if err != nil {
		t.Fatalf("Failed to insert child: %v", err)
	}
	return id
}

func insertEvent(t *testing.T, db *DB) int64 {
	t.Helper()
	now := ToMillis(time.Now())
	id, err := db.ExecReturningID(context.Background(),
		"INSERT INTO events (title, start_time, end_time, status, created_at) VALUES (?, ?, ?, ?, ?)",
		"Lineup", now, now, 0, now)
	if err != nil {
		t.Fatalf("Failed to insert event: %v", err)
	}
	return id
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	for _, table := range AllTables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version < 1 {
		t.Errorf("SchemaVersion() = %d, want >= 1", version)
	}

	// Applying again is a no-op
	if err := db.Migrate(ctx, nil); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecReturningID(ctx,
			"INSERT INTO children (name, last_name, age, squad_name, created_at) VALUES (?, ?, ?, ?, ?)",
			"Anna", "Petrova", 10, "Eagles", ToMillis(time.Now()))
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO children (name, last_name, age, squad_name, created_at) VALUES (?, ?, ?, ?, ?)",
			"Boris", "Ivanov", 11, "Eagles", ToMillis(time.Now())); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM children").Scan(&count); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 child after rollback, got %d", count)
	}
}

func TestConstraintClassification(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	childID := insertChild(t, db, "Anna")
	eventID := insertEvent(t, db)
	insert := "INSERT INTO attendance (event_id, child_id, present, marked_at) VALUES (?, ?, ?, ?)"

	if _, err := db.ExecContext(ctx, insert, eventID, childID, true, 1); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err := db.ExecContext(ctx, insert, eventID, childID, false, 2)
	err = Classify(db.Dialect, err)
	if !errors.Is(err, ErrUniqueViolation) || !errors.Is(err, ErrConstraint) {
		t.Errorf("duplicate pair error = %v, want unique violation", err)
	}

	_, err = db.ExecContext(ctx, insert, eventID, childID+100, false, 2)
	if err = Classify(db.Dialect, err); !errors.Is(err, ErrForeignKeyViolation) {
		t.Errorf("missing child error = %v, want foreign key violation", err)
	}

	_, err = db.ExecContext(ctx, "UPDATE events SET status = 7 WHERE id = ?", eventID)
	if err = Classify(db.Dialect, err); !errors.Is(err, ErrCheckViolation) {
		t.Errorf("bad status error = %v, want check violation", err)
	}

	if Classify(db.Dialect, nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestCascadeDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	childID := insertChild(t, db, "Anna")
	eventID := insertEvent(t, db)
	if _, err := db.ExecContext(ctx,
		"INSERT INTO attendance (event_id, child_id, present, marked_at) VALUES (?, ?, ?, ?)",
		eventID, childID, true, 1); err != nil {
		t.Fatalf("insert attendance: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO notes (title, content, child_id, note_type, created_at) VALUES (?, ?, ?, ?, ?)",
		"Allergy", "", childID, 0, 1); err != nil {
		t.Fatalf("insert note: %v", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM children WHERE id = ?", childID); err != nil {
		t.Fatalf("delete child: %v", err)
	}

	for _, table := range []string{TableAttendance, TableNotes} {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s rows after delete = %d, want 0", table, n)
		}
	}
}

func TestResetSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertChild(t, db, "Anna")

	hub := live.NewHub(time.Second, nil)
	db.Hub = hub
	s := live.Watch(ctx, hub, func(ctx context.Context) (int, error) {
		var n int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM children").Scan(&n)
		return n, err
	}, TableChildren)
	defer s.Close()

	if u, _ := s.Next(ctx); u.Err != nil || u.Value != 1 {
		t.Fatalf("initial = %+v, want 1", u)
	}

	if err := db.ResetSchema(ctx, nil); err != nil {
		t.Fatalf("ResetSchema() error = %v", err)
	}

	tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	u, ok := s.Next(tctx)
	if !ok || u.Err != nil || u.Value != 0 {
		t.Errorf("after reset = %+v, %v; want 0", u, ok)
	}
}

func TestSeedDefaultGames(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SeedDefaultGames(ctx, nil); err != nil {
		t.Fatalf("SeedDefaultGames() error = %v", err)
	}
	if err := db.SeedDefaultGames(ctx, nil); err != nil {
		t.Fatalf("second SeedDefaultGames() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != len(defaultGames) {
		t.Errorf("games = %d, want %d", count, len(defaultGames))
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertChild(t, db, "Concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var name string
			err := db.QueryRowContext(ctx, "SELECT name FROM children WHERE squad_name = ?", "Eagles").Scan(&name)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if name != "Concurrent" {
				t.Errorf("Expected name 'Concurrent', got '%s'", name)
			}
		}()
	}
	wg.Wait()
}

func TestTimeConversions(t *testing.T) {
	at := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	if got := FromMillis(ToMillis(at)); !got.Equal(at) {
		t.Errorf("round trip = %v, want %v", got, at)
	}
	if v := NullMillis(nil); v.Valid {
		t.Error("NullMillis(nil) should be invalid")
	}
	if p := TimePtr(NullMillis(&at)); p == nil || !p.Equal(at) {
		t.Errorf("TimePtr() = %v", p)
	}
	if StringPtr(NullString(nil)) != nil {
		t.Error("StringPtr of null should be nil")
	}
	n := 5
	if p := IntPtr(NullInt(&n)); p == nil || *p != 5 {
		t.Errorf("IntPtr() = %v", p)
	}
}

func TestUnicodeLower(t *testing.T) {
	db := openTestDB(t)
	var got string
	if err := db.QueryRowContext(context.Background(), "SELECT lower(?)", "АННА Anna").Scan(&got); err != nil {
		t.Fatal(err)
	}
	if got != "анна anna" {
		t.Errorf("lower() = %q", got)
	}
}
