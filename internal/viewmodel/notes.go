package viewmodel

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"vozhatapp/internal/models"
	"vozhatapp/internal/service"
)

// NotesFilter selects which notes the notes screen lists
type NotesFilter int

const (
	NotesAll NotesFilter = iota
	NotesGeneral
	NotesReminders
)

type notesSource struct {
	Notice
	Query     string
	Filter    NotesFilter
	Notes     []models.Note
	Reminders []models.Note
	Loaded    bool
}

type NotesState struct {
	Query     string
	Filter    NotesFilter
	Notes     []models.Note
	Reminders []models.Note
	Loading   bool
	Empty     bool
	Message   string
}

// mergeNotes applies the filter to the search results
func mergeNotes(s notesSource) NotesState {
	notes := make([]models.Note, 0, len(s.Notes))
	for _, n := range s.Notes {
		switch {
		case s.Filter == NotesGeneral && !n.IsGeneral():
		case s.Filter == NotesReminders && !n.IsReminder():
		default:
			notes = append(notes, n)
		}
	}
	return NotesState{
		Query:     s.Query,
		Filter:    s.Filter,
		Notes:     notes,
		Reminders: s.Reminders,
		Loading:   !s.Loaded,
		Empty:     s.Loaded && len(notes) == 0,
		Message:   s.Message,
	}
}

// Notes lists counselor notes and the reminders that are still ahead
type Notes struct {
	*Store[notesSource, NotesState]
	notes *service.NoteService
	log   *zap.Logger
}

// NewNotes lists all notes and the reminders due from now on
func NewNotes(ctx context.Context, notes *service.NoteService, now time.Time, log *zap.Logger) *Notes {
	v := &Notes{
		Store: NewStore(ctx, notesSource{}, mergeNotes),
		notes: notes,
		log:   orNop(log),
	}
	Bind(v.Store, "reminders", notes.WatchReminders(v.Context(), now), func(s *notesSource, r []models.Note, err error) {
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Reminders = r
	})
	v.Search("")
	return v
}

// Search changes the search text. Results of the previous text are dropped.
func (v *Notes) Search(query string) {
	query = strings.TrimSpace(query)
	reset := func(s *notesSource) {
		s.Query = query
		s.Notes = nil
		s.Loaded = false
	}
	Rebind(v.Store, "notes", v.notes.WatchSearch(v.Context(), query), reset, func(s *notesSource, n []models.Note, err error) {
		s.Loaded = true
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Notes = n
	})
}

// SetFilter switches between all notes, general notes and reminders
func (v *Notes) SetFilter(f NotesFilter) {
	v.Update(func(s *notesSource) { s.Filter = f })
}

func (v *Notes) fail(err error) error {
	if err != nil {
		v.Update(func(s *notesSource) { s.report(v.log, err) })
	}
	return err
}

// Create stores a new note
func (v *Notes) Create(ctx context.Context, n models.Note) (int64, error) {
	id, err := v.notes.Create(ctx, &n)
	return id, v.fail(err)
}

// Delete removes a note
func (v *Notes) Delete(ctx context.Context, id int64) error {
	return v.fail(v.notes.Delete(ctx, id))
}

func (v *Notes) MessageShown() {
	v.Update(func(s *notesSource) { s.clear() })
}
