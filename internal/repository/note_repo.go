package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vozhatapp/internal/database"
	"vozhatapp/internal/live"
	"vozhatapp/internal/models"
)

const noteColumns = "id, title, content, child_id, note_type, reminder_date, created_at"

// NoteRepository handles database operations for notes and reminders
type NoteRepository struct {
	db *database.DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *database.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func scanNote(s rowScanner) (models.Note, error) {
	var (
		n         models.Note
		childID   sql.NullInt64
		reminder  sql.NullInt64
		createdAt int64
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Content, &childID, &n.Type, &reminder, &createdAt); err != nil {
		return n, fmt.Errorf("failed to scan note: %w", err)
	}
	n.ChildID = database.Int64Ptr(childID)
	n.ReminderDate = database.TimePtr(reminder)
	n.CreatedAt = database.FromMillis(createdAt)
	return n, nil
}

func (r *NoteRepository) list(ctx context.Context, what, where, order string, args ...any) ([]models.Note, error) {
	query := "SELECT " + noteColumns + " FROM notes"
	if where != "" {
		query += " WHERE " + where
	}
	if order == "" {
		order = "created_at DESC, id DESC"
	}
	query += " ORDER BY " + order
	notes, err := queryList(ctx, r.db, scanNote, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	return notes, nil
}

// All returns every note, newest first
func (r *NoteRepository) All(ctx context.Context) ([]models.Note, error) {
	return r.list(ctx, "notes", "", "")
}

// ByID retrieves a note by ID
func (r *NoteRepository) ByID(ctx context.Context, id int64) (*models.Note, error) {
	n, err := scanNote(r.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &n, nil
}

// ByChild retrieves the notes attached to a child
func (r *NoteRepository) ByChild(ctx context.Context, childID int64) ([]models.Note, error) {
	return r.list(ctx, "child notes", "child_id = ?", "", childID)
}

// General returns notes not attached to any child
func (r *NoteRepository) General(ctx context.Context) ([]models.Note, error) {
	return r.list(ctx, "general notes", "child_id IS NULL", "")
}

// ByType retrieves plain notes or reminders
func (r *NoteRepository) ByType(ctx context.Context, t models.NoteType) ([]models.Note, error) {
	return r.list(ctx, "notes by type", "note_type = ?", "", int(t))
}

// Search matches text against title or content, ignoring case
func (r *NoteRepository) Search(ctx context.Context, text string) ([]models.Note, error) {
	p := likePattern(text)
	return r.list(ctx, "note search", "LOWER(title) LIKE ? ESCAPE '!' OR LOWER(content) LIKE ? ESCAPE '!'", "", p, p)
}

// UpcomingReminders returns reminders due at or after now, soonest first
func (r *NoteRepository) UpcomingReminders(ctx context.Context, now time.Time) ([]models.Note, error) {
	return r.list(ctx, "reminders", "note_type = ? AND reminder_date IS NOT NULL AND reminder_date >= ?",
		"reminder_date ASC, id ASC", int(models.NoteReminder), database.ToMillis(now))
}

// Insert stores a new note and returns its ID
func (r *NoteRepository) Insert(ctx context.Context, n *models.Note) (int64, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO notes (title, content, child_id, note_type, reminder_date, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		n.Title, n.Content, database.NullInt64(n.ChildID), int(n.Type),
		database.NullMillis(n.ReminderDate), database.ToMillis(n.CreatedAt))
	if err != nil {
		return 0, wrapWrite(r.db.Dialect, "create note", err)
	}
	n.ID = id
	r.db.Changed(database.TableNotes)
	return id, nil
}

// Update replaces a note's fields
func (r *NoteRepository) Update(ctx context.Context, n *models.Note) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notes SET title = ?, content = ?, child_id = ?, note_type = ?, reminder_date = ?, created_at = ? WHERE id = ?",
		n.Title, n.Content, database.NullInt64(n.ChildID), int(n.Type),
		database.NullMillis(n.ReminderDate), database.ToMillis(n.CreatedAt), n.ID)
	if err != nil {
		return wrapWrite(r.db.Dialect, "update note", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("failed to update note %d: %w", n.ID, err)
	}
	r.db.Changed(database.TableNotes)
	return nil
}

// Delete removes a note
func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return wrapWrite(r.db.Dialect, "delete note", err)
	}
	r.db.Changed(database.TableNotes)
	return nil
}

// WatchAll streams every note
func (r *NoteRepository) WatchAll(ctx context.Context) *live.Stream[[]models.Note] {
	return live.Watch(ctx, r.db.Hub, r.All, database.TableNotes)
}

// WatchByChild streams the notes attached to a child
func (r *NoteRepository) WatchByChild(ctx context.Context, childID int64) *live.Stream[[]models.Note] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Note, error) {
		return r.ByChild(ctx, childID)
	}, database.TableNotes)
}

// WatchGeneral streams the notes not attached to a child
func (r *NoteRepository) WatchGeneral(ctx context.Context) *live.Stream[[]models.Note] {
	return live.Watch(ctx, r.db.Hub, r.General, database.TableNotes)
}

// WatchSearch streams the notes matching text
func (r *NoteRepository) WatchSearch(ctx context.Context, text string) *live.Stream[[]models.Note] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Note, error) {
		return r.Search(ctx, text)
	}, database.TableNotes)
}

// WatchUpcomingReminders streams reminders due at or after now
func (r *NoteRepository) WatchUpcomingReminders(ctx context.Context, now time.Time) *live.Stream[[]models.Note] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Note, error) {
		return r.UpcomingReminders(ctx, now)
	}, database.TableNotes)
}
