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

const attendanceColumns = "id, event_id, child_id, present, note, marked_by, marked_at"

// AttendanceRepository handles database operations for attendance marks
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func scanAttendance(s rowScanner) (models.Attendance, error) {
	var (
		a        models.Attendance
		note     sql.NullString
		markedBy sql.NullInt64
		markedAt int64
	)
	if err := s.Scan(&a.ID, &a.EventID, &a.ChildID, &a.Present, &note, &markedBy, &markedAt); err != nil {
		return a, fmt.Errorf("failed to scan attendance: %w", err)
	}
	a.Note = database.StringPtr(note)
	a.MarkedBy = database.Int64Ptr(markedBy)
	a.MarkedAt = database.FromMillis(markedAt)
	return a, nil
}

// All returns every mark, grouped by event
func (r *AttendanceRepository) All(ctx context.Context) ([]models.Attendance, error) {
	rows, err := queryList(ctx, r.db, scanAttendance,
		"SELECT "+attendanceColumns+" FROM attendance ORDER BY event_id ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	return rows, nil
}

// ByEvent retrieves the marks of an event
func (r *AttendanceRepository) ByEvent(ctx context.Context, eventID int64) ([]models.Attendance, error) {
	rows, err := queryList(ctx, r.db, scanAttendance,
		"SELECT "+attendanceColumns+" FROM attendance WHERE event_id = ? ORDER BY id ASC", eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event attendance: %w", err)
	}
	return rows, nil
}

// ByChild retrieves a child's marks, most recent first
func (r *AttendanceRepository) ByChild(ctx context.Context, childID int64) ([]models.Attendance, error) {
	rows, err := queryList(ctx, r.db, scanAttendance,
		"SELECT "+attendanceColumns+" FROM attendance WHERE child_id = ? ORDER BY marked_at DESC, id DESC", childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query child attendance: %w", err)
	}
	return rows, nil
}

// ByEventAndChild returns the mark of one child at one event, or nil
func (r *AttendanceRepository) ByEventAndChild(ctx context.Context, eventID, childID int64) (*models.Attendance, error) {
	a, err := scanAttendance(r.db.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance WHERE event_id = ? AND child_id = ?", eventID, childID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &a, nil
}

// attendanceArgs defaults MarkedAt to now and returns the insert arguments
func attendanceArgs(a *models.Attendance) []any {
	if a.MarkedAt.IsZero() {
		a.MarkedAt = time.Now()
	}
	return []any{a.EventID, a.ChildID, a.Present,
		database.NullString(a.Note), database.NullInt64(a.MarkedBy), database.ToMillis(a.MarkedAt)}
}

func insertAttendance(ctx context.Context, q database.DBTX, query string, a *models.Attendance) (sql.Result, error) {
	return q.ExecContext(ctx, query, attendanceArgs(a)...)
}

// Insert stores a new mark. A second mark for the same event and child
// fails with a unique violation and leaves the first one untouched.
func (r *AttendanceRepository) Insert(ctx context.Context, a *models.Attendance) (int64, error) {
	id, err := r.db.ExecReturningID(ctx, database.InsertAttendanceQuery, attendanceArgs(a)...)
	if err != nil {
		return 0, wrapWrite(r.db.Dialect, "create attendance", err)
	}
	a.ID = id
	r.db.Changed(database.TableAttendance)
	return id, nil
}

// InsertBatch stores all marks in one transaction. Any failure, including a
// duplicate pair, rolls back the whole batch.
func (r *AttendanceRepository) InsertBatch(ctx context.Context, marks []models.Attendance) error {
	return r.batch(ctx, "create attendance batch", database.InsertAttendanceQuery, marks)
}

// Upsert stores a mark, replacing an existing one for the same event and child
func (r *AttendanceRepository) Upsert(ctx context.Context, a *models.Attendance) error {
	if _, err := insertAttendance(ctx, r.db, r.db.Dialect.UpsertAttendance(), a); err != nil {
		return wrapWrite(r.db.Dialect, "save attendance", err)
	}
	r.db.Changed(database.TableAttendance)
	return nil
}

// UpsertBatch replaces marks atomically
func (r *AttendanceRepository) UpsertBatch(ctx context.Context, marks []models.Attendance) error {
	return r.batch(ctx, "save attendance batch", r.db.Dialect.UpsertAttendance(), marks)
}

func (r *AttendanceRepository) batch(ctx context.Context, what, query string, marks []models.Attendance) error {
	if len(marks) == 0 {
		return nil
	}
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		for i := range marks {
			if _, err := insertAttendance(ctx, tx, query, &marks[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapWrite(r.db.Dialect, what, err)
	}
	r.db.Changed(database.TableAttendance)
	return nil
}

// Update replaces the mark with the given ID
func (r *AttendanceRepository) Update(ctx context.Context, a *models.Attendance) error {
	query := `UPDATE attendance SET event_id = ?, child_id = ?, present = ?, note = ?,
		marked_by = ?, marked_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, a.EventID, a.ChildID, a.Present,
		database.NullString(a.Note), database.NullInt64(a.MarkedBy), database.ToMillis(a.MarkedAt), a.ID)
	if err != nil {
		return wrapWrite(r.db.Dialect, "update attendance", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("failed to update attendance %d: %w", a.ID, err)
	}
	r.db.Changed(database.TableAttendance)
	return nil
}

// Delete removes a mark
func (r *AttendanceRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM attendance WHERE id = ?", id); err != nil {
		return wrapWrite(r.db.Dialect, "delete attendance", err)
	}
	r.db.Changed(database.TableAttendance)
	return nil
}

// DeleteByEvent removes every mark of an event
func (r *AttendanceRepository) DeleteByEvent(ctx context.Context, eventID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM attendance WHERE event_id = ?", eventID); err != nil {
		return wrapWrite(r.db.Dialect, "clear event attendance", err)
	}
	r.db.Changed(database.TableAttendance)
	return nil
}

func (r *AttendanceRepository) stats(ctx context.Context, column string, id int64) (models.AttendanceStats, error) {
	var (
		s       models.AttendanceStats
		present sql.NullInt64
	)
	query := "SELECT COUNT(*), SUM(CASE WHEN present THEN 1 ELSE 0 END) FROM attendance WHERE " + column + " = ?"
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&s.Total, &present); err != nil {
		return s, fmt.Errorf("failed to count attendance: %w", err)
	}
	s.Present = int(present.Int64)
	return s, nil
}

// CountForChild returns the total and present marks of a child
func (r *AttendanceRepository) CountForChild(ctx context.Context, childID int64) (models.AttendanceStats, error) {
	return r.stats(ctx, "child_id", childID)
}

// CountForEvent returns the total and present marks at an event
func (r *AttendanceRepository) CountForEvent(ctx context.Context, eventID int64) (models.AttendanceStats, error) {
	return r.stats(ctx, "event_id", eventID)
}

// WatchByEvent streams the marks of an event
func (r *AttendanceRepository) WatchByEvent(ctx context.Context, eventID int64) *live.Stream[[]models.Attendance] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Attendance, error) {
		return r.ByEvent(ctx, eventID)
	}, database.TableAttendance)
}

// WatchByChild streams a child's marks
func (r *AttendanceRepository) WatchByChild(ctx context.Context, childID int64) *live.Stream[[]models.Attendance] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Attendance, error) {
		return r.ByChild(ctx, childID)
	}, database.TableAttendance)
}

// WatchCountForChild streams a child's attendance totals
func (r *AttendanceRepository) WatchCountForChild(ctx context.Context, childID int64) *live.Stream[models.AttendanceStats] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) (models.AttendanceStats, error) {
		return r.CountForChild(ctx, childID)
	}, database.TableAttendance)
}
