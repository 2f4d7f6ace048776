package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vozhatapp/internal/database"
	"vozhatapp/internal/models"
	"vozhatapp/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	ID           string               `json:"id"`
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exported_at"`
	DatabaseType string               `json:"database_type"`
	Users        []models.User        `json:"users"`
	Children     []models.Child       `json:"children"`
	Events       []models.Event       `json:"events"`
	Attendance   []models.Attendance  `json:"attendance"`
	Achievements []models.Achievement `json:"achievements"`
	Notes        []models.Note        `json:"notes"`
	Games        []models.Game        `json:"games"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	run *Runner
	log *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, run *Runner, log *zap.Logger) *BackupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackupService{db: db, run: run, log: log}
}

// Snapshot reads every table into memory, preserving IDs
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		ID:           uuid.NewString(),
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	var err error
	if backup.Users, err = repository.NewUserRepository(s.db).All(ctx); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if backup.Children, err = repository.NewChildRepository(s.db).All(ctx); err != nil {
		return nil, fmt.Errorf("failed to export children: %w", err)
	}
	if backup.Events, err = repository.NewEventRepository(s.db).All(ctx); err != nil {
		return nil, fmt.Errorf("failed to export events: %w", err)
	}
	if backup.Attendance, err = repository.NewAttendanceRepository(s.db).All(ctx); err != nil {
		return nil, fmt.Errorf("failed to export attendance: %w", err)
	}
	if backup.Achievements, err = repository.NewAchievementRepository(s.db).All(ctx); err != nil {
		return nil, fmt.Errorf("failed to export achievements: %w", err)
	}
	if backup.Notes, err = repository.NewNoteRepository(s.db).All(ctx); err != nil {
		return nil, fmt.Errorf("failed to export notes: %w", err)
	}
	if backup.Games, err = repository.NewGameRepository(s.db).All(ctx); err != nil {
		return nil, fmt.Errorf("failed to export games: %w", err)
	}
	return backup, nil
}

// Export writes a JSON backup of the whole database to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup, err := read(ctx, s.run, "export", s.Snapshot)
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, s.run.fail("export", fmt.Errorf("failed to encode backup: %w", err))
	}

	s.log.Info("database exported",
		zap.String("backup_id", backup.ID),
		zap.Int("users", len(backup.Users)),
		zap.Int("children", len(backup.Children)),
		zap.Int("events", len(backup.Events)),
		zap.Int("attendance", len(backup.Attendance)),
		zap.Int("achievements", len(backup.Achievements)),
		zap.Int("notes", len(backup.Notes)),
		zap.Int("games", len(backup.Games)),
	)
	return backup, nil
}

// Import restores a backup read from r in one transaction. With clear set,
// existing rows are deleted first; otherwise rows with clashing IDs fail the
// whole import.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*BackupData, error) {
	const op = "import"
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, s.run.fail(op, fmt.Errorf("failed to decode backup: %w", err))
	}
	s.log.Info("importing backup",
		zap.String("backup_id", backup.ID),
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt))

	err := s.run.Write(ctx, op, func(ctx context.Context) error {
		err := s.db.WithTx(ctx, func(tx *database.Tx) error {
			if clear {
				for i := len(database.AllTables) - 1; i >= 0; i-- {
					if _, err := tx.ExecContext(ctx, "DELETE FROM "+database.AllTables[i]); err != nil {
						return fmt.Errorf("failed to clear %s: %w", database.AllTables[i], err)
					}
				}
			}
			return importAll(ctx, tx, &backup)
		})
		if err != nil {
			return database.Classify(s.db.Dialect, err)
		}
		s.db.Changed(database.AllTables...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("database import completed", zap.String("backup_id", backup.ID))
	return &backup, nil
}

// importAll inserts every row with its original ID, parents before children
func importAll(ctx context.Context, tx *database.Tx, b *BackupData) error {
	for _, u := range b.Users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, name, email, password_hash, photo_url, theme,
			notifications_enabled, last_login_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Name, u.Email, u.PasswordHash, database.NullString(u.PhotoURL), int(u.Theme),
			u.NotificationsEnabled, database.NullMillis(u.LastLoginAt), database.ToMillis(u.CreatedAt)); err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	for _, c := range b.Children {
		if _, err := tx.ExecContext(ctx, `INSERT INTO children (id, name, last_name, age, squad_name, photo_url,
			parent_phone, parent_email, address, medical_notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.LastName, c.Age, c.SquadName, database.NullString(c.PhotoURL),
			database.NullString(c.ParentPhone), database.NullString(c.ParentEmail),
			database.NullString(c.Address), database.NullString(c.MedicalNotes), database.ToMillis(c.CreatedAt)); err != nil {
			return fmt.Errorf("failed to import child %d: %w", c.ID, err)
		}
	}
	for _, e := range b.Events {
		if _, err := tx.ExecContext(ctx, `INSERT INTO events (id, title, description, start_time, end_time,
			location, status, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Title, database.NullString(e.Description), database.ToMillis(e.StartTime),
			database.ToMillis(e.EndTime), database.NullString(e.Location), int(e.Status),
			database.NullInt64(e.CreatedBy), database.ToMillis(e.CreatedAt)); err != nil {
			return fmt.Errorf("failed to import event %d: %w", e.ID, err)
		}
	}
	for _, a := range b.Attendance {
		if _, err := tx.ExecContext(ctx, `INSERT INTO attendance (id, event_id, child_id, present, note,
			marked_by, marked_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.EventID, a.ChildID, a.Present, database.NullString(a.Note),
			database.NullInt64(a.MarkedBy), database.ToMillis(a.MarkedAt)); err != nil {
			return fmt.Errorf("failed to import attendance %d: %w", a.ID, err)
		}
	}
	for _, a := range b.Achievements {
		if _, err := tx.ExecContext(ctx, `INSERT INTO achievements (id, child_id, title, description, points,
			achieved_at) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.ChildID, a.Title, database.NullString(a.Description), a.Points, database.ToMillis(a.Date)); err != nil {
			return fmt.Errorf("failed to import achievement %d: %w", a.ID, err)
		}
	}
	for _, n := range b.Notes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notes (id, title, content, child_id, note_type,
			reminder_date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.Title, n.Content, database.NullInt64(n.ChildID), int(n.Type),
			database.NullMillis(n.ReminderDate), database.ToMillis(n.CreatedAt)); err != nil {
			return fmt.Errorf("failed to import note %d: %w", n.ID, err)
		}
	}
	for _, g := range b.Games {
		if _, err := tx.ExecContext(ctx, `INSERT INTO games (id, title, description, category, min_age, max_age,
			min_players, max_players, duration_minutes, materials) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Title, g.Description, g.Category, database.NullInt(g.MinAge), database.NullInt(g.MaxAge),
			database.NullInt(g.MinPlayers), database.NullInt(g.MaxPlayers), database.NullInt(g.DurationMinutes),
			database.NullString(g.Materials)); err != nil {
			return fmt.Errorf("failed to import game %d: %w", g.ID, err)
		}
	}

	if _, ok := tx.GetDialect().(*database.PostgresDialect); ok {
		for _, table := range database.AllTables {
			q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)", table, table)
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("failed to reset sequence of %s: %w", table, err)
			}
		}
	}
	return nil
}
