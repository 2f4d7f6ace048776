package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vozhatapp/internal/database"
	"vozhatapp/internal/dispatch"
	"vozhatapp/internal/models"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/security"
	"vozhatapp/internal/testutil/testdb"
)

type services struct {
	db           *database.DB
	run          *Runner
	children     *ChildService
	events       *EventService
	attendance   *AttendanceService
	achievements *AchievementService
	notes        *NoteService
	games        *GameService
	users        *UserService
	backup       *BackupService
}

func setup(t *testing.T) *services {
	t.Helper()
	db := testdb.OpenSQLite(t)
	pool := dispatch.New(2, 5*time.Second, nil, nil)
	t.Cleanup(pool.Close)
	run := NewRunner(pool, 5*time.Second, nil)

	children := repository.NewChildRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	return &services{
		db:           db,
		run:          run,
		children:     NewChildService(children, attendance, run),
		events:       NewEventService(repository.NewEventRepository(db), run, time.UTC),
		attendance:   NewAttendanceService(attendance, children, run),
		achievements: NewAchievementService(repository.NewAchievementRepository(db), run),
		notes:        NewNoteService(repository.NewNoteRepository(db), run),
		games:        NewGameService(repository.NewGameRepository(db), run),
		users:        NewUserService(repository.NewUserRepository(db), security.NewHasher(bcrypt.MinCost), run),
		backup:       NewBackupService(db, run, nil),
	}
}

func (s *services) child(t *testing.T, name, lastName, squad string) int64 {
	t.Helper()
	id, err := s.children.Create(context.Background(), &models.Child{
		Name: name, LastName: lastName, Age: 10, SquadName: squad, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return id
}

func (s *services) event(t *testing.T, title string, start time.Time) int64 {
	t.Helper()
	id, err := s.events.Create(context.Background(), &models.Event{
		Title: title, StartTime: start, EndTime: start.Add(time.Hour), CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return id
}

func expectKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("KindOf(%v) = %s, want %s", err, got, want)
	}
}
