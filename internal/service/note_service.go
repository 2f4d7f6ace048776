package service

import (
	"context"
	"strings"
	"time"

	"vozhatapp/internal/live"
	"vozhatapp/internal/models"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/validation"
)

// NoteService manages counselor notes and reminders
type NoteService struct {
	notes *repository.NoteRepository
	run   *Runner
}

// NewNoteService creates a new note service
func NewNoteService(notes *repository.NoteRepository, run *Runner) *NoteService {
	return &NoteService{notes: notes, run: run}
}

// WatchAll streams every note
func (s *NoteService) WatchAll(ctx context.Context) *live.Stream[[]models.Note] {
	return s.notes.WatchAll(ctx)
}

// WatchGeneral streams the notes not attached to a child
func (s *NoteService) WatchGeneral(ctx context.Context) *live.Stream[[]models.Note] {
	return s.notes.WatchGeneral(ctx)
}

// WatchByChild streams the notes attached to a child
func (s *NoteService) WatchByChild(ctx context.Context, childID int64) *live.Stream[[]models.Note] {
	return s.notes.WatchByChild(ctx, childID)
}

// WatchSearch streams notes matching text; empty text streams all
func (s *NoteService) WatchSearch(ctx context.Context, text string) *live.Stream[[]models.Note] {
	if strings.TrimSpace(text) == "" {
		return s.notes.WatchAll(ctx)
	}
	return s.notes.WatchSearch(ctx, text)
}

// WatchReminders watches reminders due at or after now
func (s *NoteService) WatchReminders(ctx context.Context, now time.Time) *live.Stream[[]models.Note] {
	return s.notes.WatchUpcomingReminders(ctx, now)
}

// Reminders returns the reminders due at or after now
func (s *NoteService) Reminders(ctx context.Context, now time.Time) ([]models.Note, error) {
	return read(ctx, s.run, "upcoming reminders", func(ctx context.Context) ([]models.Note, error) {
		return s.notes.UpcomingReminders(ctx, now)
	})
}

// Get returns a note, or nil when it does not exist
func (s *NoteService) Get(ctx context.Context, id int64) (*models.Note, error) {
	return read(ctx, s.run, "get note", func(ctx context.Context) (*models.Note, error) {
		return s.notes.ByID(ctx, id)
	})
}

// Create stores a note. Plain notes never keep a reminder date.
func (s *NoteService) Create(ctx context.Context, n *models.Note) (int64, error) {
	const op = "create note"
	normalizeNote(n)
	if err := validation.Struct(n); err != nil {
		return 0, s.run.fail(op, err)
	}
	return s.run.Insert(ctx, op, func(ctx context.Context) (int64, error) {
		return s.notes.Insert(ctx, n)
	})
}

// Update validates and saves a note
func (s *NoteService) Update(ctx context.Context, n *models.Note) error {
	const op = "update note"
	normalizeNote(n)
	if err := validation.Struct(n); err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.notes.Update(ctx, n)
	})
}

// Delete removes a note
func (s *NoteService) Delete(ctx context.Context, id int64) error {
	return s.run.Write(ctx, "delete note", func(ctx context.Context) error {
		return s.notes.Delete(ctx, id)
	})
}

// normalizeNote drops the reminder date of plain notes
func normalizeNote(n *models.Note) {
	n.Title = strings.TrimSpace(n.Title)
	if n.Type == models.NotePlain {
		n.ReminderDate = nil
	}
}
