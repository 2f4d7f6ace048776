package repository

import (
	"context"
	"testing"
	"time"

	"vozhatapp/internal/database"
	"vozhatapp/internal/models"
	"vozhatapp/internal/testutil/testdb"
)

type repos struct {
	db           *database.DB
	children     *ChildRepository
	events       *EventRepository
	attendance   *AttendanceRepository
	achievements *AchievementRepository
	notes        *NoteRepository
	games        *GameRepository
	users        *UserRepository
}

func setup(t *testing.T) *repos {
	t.Helper()
	db := testdb.OpenSQLite(t)
	return &repos{
		db:           db,
		children:     NewChildRepository(db),
		events:       NewEventRepository(db),
		attendance:   NewAttendanceRepository(db),
		achievements: NewAchievementRepository(db),
		notes:        NewNoteRepository(db),
		games:        NewGameRepository(db),
		users:        NewUserRepository(db),
	}
}

func (r *repos) child(t *testing.T, name, lastName, squad string) int64 {
	t.Helper()
	id, err := r.children.Insert(context.Background(), &models.Child{
		Name: name, LastName: lastName, Age: 10, SquadName: squad,
	})
	if err != nil {
		t.Fatalf("insert child %s: %v", name, err)
	}
	return id
}

func (r *repos) event(t *testing.T, title string, start time.Time) int64 {
	t.Helper()
	id, err := r.events.Insert(context.Background(), &models.Event{
		Title: title, StartTime: start, EndTime: start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("insert event %s: %v", title, err)
	}
	return id
}

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }
