package service

import (
	"context"
	"time"

	"vozhatapp/internal/live"
	"vozhatapp/internal/models"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/validation"
)

// AttendanceService records who came to which event
type AttendanceService struct {
	attendance *repository.AttendanceRepository
	children   *repository.ChildRepository
	run        *Runner
	now        func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(attendance *repository.AttendanceRepository, children *repository.ChildRepository, run *Runner) *AttendanceService {
	return &AttendanceService{attendance: attendance, children: children, run: run, now: time.Now}
}

// WatchByEvent streams the marks of an event
func (s *AttendanceService) WatchByEvent(ctx context.Context, eventID int64) *live.Stream[[]models.Attendance] {
	return s.attendance.WatchByEvent(ctx, eventID)
}

// WatchByChild streams a child's marks
func (s *AttendanceService) WatchByChild(ctx context.Context, childID int64) *live.Stream[[]models.Attendance] {
	return s.attendance.WatchByChild(ctx, childID)
}

// ForEvent returns the marks of an event
func (s *AttendanceService) ForEvent(ctx context.Context, eventID int64) ([]models.Attendance, error) {
	return read(ctx, s.run, "event attendance", func(ctx context.Context) ([]models.Attendance, error) {
		return s.attendance.ByEvent(ctx, eventID)
	})
}

// Record stores a new mark. Marking the same child twice for one event is
// a conflict; use MarkAttendance to change an existing mark.
func (s *AttendanceService) Record(ctx context.Context, a *models.Attendance) (int64, error) {
	const op = "record attendance"
	if err := validation.Struct(a); err != nil {
		return 0, s.run.fail(op, err)
	}
	return s.run.Insert(ctx, op, func(ctx context.Context) (int64, error) {
		return s.attendance.Insert(ctx, a)
	})
}

// RecordBatch stores marks atomically; one bad mark rejects them all
func (s *AttendanceService) RecordBatch(ctx context.Context, marks []models.Attendance) error {
	const op = "record attendance batch"
	for i := range marks {
		if err := validation.Struct(&marks[i]); err != nil {
			return s.run.fail(op, err)
		}
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.attendance.InsertBatch(ctx, marks)
	})
}

// MarkAttendance sets a child's presence for an event, replacing any
// previous mark
func (s *AttendanceService) MarkAttendance(ctx context.Context, eventID, childID int64, present bool, note *string, markedBy *int64) error {
	const op = "mark attendance"
	a := &models.Attendance{
		EventID: eventID, ChildID: childID, Present: present,
		Note: note, MarkedBy: markedBy, MarkedAt: s.now(),
	}
	if err := validation.Struct(a); err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.attendance.Upsert(ctx, a)
	})
}

// MarkAll sets the same presence for every child at once
func (s *AttendanceService) MarkAll(ctx context.Context, eventID int64, present bool, markedBy *int64) error {
	return s.run.Write(ctx, "mark all attendance", func(ctx context.Context) error {
		children, err := s.children.All(ctx)
		if err != nil {
			return err
		}
		at := s.now()
		marks := make([]models.Attendance, 0, len(children))
		for _, c := range children {
			marks = append(marks, models.Attendance{
				EventID: eventID, ChildID: c.ID, Present: present, MarkedBy: markedBy, MarkedAt: at,
			})
		}
		return s.attendance.UpsertBatch(ctx, marks)
	})
}

// Update validates and saves a mark
func (s *AttendanceService) Update(ctx context.Context, a *models.Attendance) error {
	const op = "update attendance"
	if err := validation.Struct(a); err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.attendance.Update(ctx, a)
	})
}

// Delete removes a mark
func (s *AttendanceService) Delete(ctx context.Context, id int64) error {
	return s.run.Write(ctx, "delete attendance", func(ctx context.Context) error {
		return s.attendance.Delete(ctx, id)
	})
}

// ClearEvent removes every mark of an event
func (s *AttendanceService) ClearEvent(ctx context.Context, eventID int64) error {
	return s.run.Write(ctx, "clear event attendance", func(ctx context.Context) error {
		return s.attendance.DeleteByEvent(ctx, eventID)
	})
}

// ChildRate is present/total over a child's marks, 0 without marks
func (s *AttendanceService) ChildRate(ctx context.Context, childID int64) (float64, error) {
	stats, err := read(ctx, s.run, "child attendance rate", func(ctx context.Context) (models.AttendanceStats, error) {
		return s.attendance.CountForChild(ctx, childID)
	})
	return stats.Rate(), err
}

// EventRate is present/total over an event's marks, 0 without marks
func (s *AttendanceService) EventRate(ctx context.Context, eventID int64) (float64, error) {
	stats, err := read(ctx, s.run, "event attendance rate", func(ctx context.Context) (models.AttendanceStats, error) {
		return s.attendance.CountForEvent(ctx, eventID)
	})
	return stats.Rate(), err
}
