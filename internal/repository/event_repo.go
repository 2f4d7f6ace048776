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

const eventColumns = "id, title, description, start_time, end_time, location, status, created_by, created_at"

// EventRepository handles database operations for events
type EventRepository struct {
	db *database.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(s rowScanner) (models.Event, error) {
	var (
		e                     models.Event
		description, location sql.NullString
		createdBy             sql.NullInt64
		start, end, createdAt int64
	)
	if err := s.Scan(&e.ID, &e.Title, &description, &start, &end, &location,
		&e.Status, &createdBy, &createdAt); err != nil {
		return e, fmt.Errorf("failed to scan event: %w", err)
	}
	e.Description = database.StringPtr(description)
	e.Location = database.StringPtr(location)
	e.CreatedBy = database.Int64Ptr(createdBy)
	e.StartTime = database.FromMillis(start)
	e.EndTime = database.FromMillis(end)
	e.CreatedAt = database.FromMillis(createdAt)
	return e, nil
}

func (r *EventRepository) list(ctx context.Context, what, where string, args ...any) ([]models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY start_time ASC, id ASC"
	events, err := queryList(ctx, r.db, scanEvent, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	return events, nil
}

// All returns every event ordered by start time
func (r *EventRepository) All(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, "events", "")
}

// ByID retrieves an event by ID
func (r *EventRepository) ByID(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

// ByStatus retrieves events in the given state
func (r *EventRepository) ByStatus(ctx context.Context, status models.EventStatus) ([]models.Event, error) {
	return r.list(ctx, "events by status", "status = ?", int(status))
}

// ByCreator retrieves the events a counselor created
func (r *EventRepository) ByCreator(ctx context.Context, userID int64) ([]models.Event, error) {
	return r.list(ctx, "events by creator", "created_by = ?", userID)
}

// Search matches text against title or description, ignoring case
func (r *EventRepository) Search(ctx context.Context, text string) ([]models.Event, error) {
	p := likePattern(text)
	return r.list(ctx, "event search",
		"LOWER(title) LIKE ? ESCAPE '!' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '!'", p, p)
}

// ByDateRange returns events starting within [start, end], both ends included
func (r *EventRepository) ByDateRange(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	return r.list(ctx, "events by range", "start_time >= ? AND start_time <= ?",
		database.ToMillis(start), database.ToMillis(end))
}

// ByDay returns events starting on the calendar day of day in loc
func (r *EventRepository) ByDay(ctx context.Context, day time.Time, loc *time.Location) ([]models.Event, error) {
	start, end := DayBounds(day, loc)
	return r.list(ctx, "events by day", "start_time >= ? AND start_time < ?",
		database.ToMillis(start), database.ToMillis(end))
}

// Upcoming returns events that have not started before now
func (r *EventRepository) Upcoming(ctx context.Context, now time.Time) ([]models.Event, error) {
	return r.list(ctx, "upcoming events", "start_time >= ?", database.ToMillis(now))
}

// DayBounds returns local midnight of day and of the following day
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Insert stores a new event and returns its ID
func (r *EventRepository) Insert(ctx context.Context, e *models.Event) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	query := `INSERT INTO events (title, description, start_time, end_time, location, status,
		created_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, e.Title, database.NullString(e.Description),
		database.ToMillis(e.StartTime), database.ToMillis(e.EndTime), database.NullString(e.Location),
		int(e.Status), database.NullInt64(e.CreatedBy), database.ToMillis(e.CreatedAt))
	if err != nil {
		return 0, wrapWrite(r.db.Dialect, "create event", err)
	}
	e.ID = id
	r.db.Changed(database.TableEvents)
	return id, nil
}

// Update replaces every column of the event with the given ID
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	query := `UPDATE events SET title = ?, description = ?, start_time = ?, end_time = ?,
		location = ?, status = ?, created_by = ?, created_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, e.Title, database.NullString(e.Description),
		database.ToMillis(e.StartTime), database.ToMillis(e.EndTime), database.NullString(e.Location),
		int(e.Status), database.NullInt64(e.CreatedBy), database.ToMillis(e.CreatedAt), e.ID)
	if err != nil {
		return wrapWrite(r.db.Dialect, "update event", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("failed to update event %d: %w", e.ID, err)
	}
	r.db.Changed(database.TableEvents)
	return nil
}

// UpdateStatus changes only the status column
func (r *EventRepository) UpdateStatus(ctx context.Context, id int64, status models.EventStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE events SET status = ? WHERE id = ?", int(status), id)
	if err != nil {
		return wrapWrite(r.db.Dialect, "update event status", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("failed to update event %d status: %w", id, err)
	}
	r.db.Changed(database.TableEvents)
	return nil
}

// Delete removes an event and its attendance in one transaction
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM attendance WHERE event_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
		return err
	})
	if err != nil {
		return wrapWrite(r.db.Dialect, "delete event", err)
	}
	r.db.Changed(database.TableEvents, database.TableAttendance)
	return nil
}

// WithAttendance loads an event with its attendance rows and the children
// they reference. Returns nil when the event does not exist.
func (r *EventRepository) WithAttendance(ctx context.Context, id int64) (*models.EventWithAttendance, error) {
	event, err := r.ByID(ctx, id)
	if err != nil || event == nil {
		return nil, err
	}
	attendance, err := queryList(ctx, r.db, scanAttendance,
		"SELECT "+attendanceColumns+" FROM attendance WHERE event_id = ? ORDER BY id ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query event attendance: %w", err)
	}
	children, err := queryList(ctx, r.db, scanChild, `SELECT `+prefixed("c", childColumns)+`
		FROM children c JOIN attendance a ON a.child_id = c.id
		WHERE a.event_id = ? ORDER BY c.name ASC, c.last_name ASC, c.id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query event children: %w", err)
	}
	return &models.EventWithAttendance{Event: *event, Children: children, Attendance: attendance}, nil
}

// WatchAll streams every event in start order
func (r *EventRepository) WatchAll(ctx context.Context) *live.Stream[[]models.Event] {
	return live.Watch(ctx, r.db.Hub, r.All, database.TableEvents)
}

// WatchByID streams one event
func (r *EventRepository) WatchByID(ctx context.Context, id int64) *live.Stream[*models.Event] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) (*models.Event, error) {
		return r.ByID(ctx, id)
	}, database.TableEvents)
}

// WatchByStatus streams events in the given state
func (r *EventRepository) WatchByStatus(ctx context.Context, status models.EventStatus) *live.Stream[[]models.Event] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Event, error) {
		return r.ByStatus(ctx, status)
	}, database.TableEvents)
}

// WatchSearch streams the events matching text
func (r *EventRepository) WatchSearch(ctx context.Context, text string) *live.Stream[[]models.Event] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Event, error) {
		return r.Search(ctx, text)
	}, database.TableEvents)
}

// WatchByDateRange streams events starting within [start, end]
func (r *EventRepository) WatchByDateRange(ctx context.Context, start, end time.Time) *live.Stream[[]models.Event] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Event, error) {
		return r.ByDateRange(ctx, start, end)
	}, database.TableEvents)
}

// WatchByDay streams events starting on the calendar day of day in loc
func (r *EventRepository) WatchByDay(ctx context.Context, day time.Time, loc *time.Location) *live.Stream[[]models.Event] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Event, error) {
		return r.ByDay(ctx, day, loc)
	}, database.TableEvents)
}

// WatchUpcoming streams events that have not started before now
func (r *EventRepository) WatchUpcoming(ctx context.Context, now time.Time) *live.Stream[[]models.Event] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Event, error) {
		return r.Upcoming(ctx, now)
	}, database.TableEvents)
}

// WatchWithAttendance streams an event with its marks.
// It reloads when events, attendance or children change.
func (r *EventRepository) WatchWithAttendance(ctx context.Context, id int64) *live.Stream[*models.EventWithAttendance] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) (*models.EventWithAttendance, error) {
		return r.WithAttendance(ctx, id)
	}, database.TableEvents, database.TableAttendance, database.TableChildren)
}
