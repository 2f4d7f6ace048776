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

// EventService manages the camp schedule
type EventService struct {
	events *repository.EventRepository
	run    *Runner
	loc    *time.Location
}

// NewEventService creates a new event service. Calendar days are computed in loc.
func NewEventService(events *repository.EventRepository, run *Runner, loc *time.Location) *EventService {
	if loc == nil {
		loc = time.Local
	}
	return &EventService{events: events, run: run, loc: loc}
}

// WatchAll streams the whole schedule
func (s *EventService) WatchAll(ctx context.Context) *live.Stream[[]models.Event] {
	return s.events.WatchAll(ctx)
}

// StartOfDay returns midnight of the calendar day containing t, in the
// location the service computes days in
func (s *EventService) StartOfDay(t time.Time) time.Time {
	start, _ := repository.DayBounds(t, s.loc)
	return start
}

// WatchDay streams the events starting on the calendar day containing day
func (s *EventService) WatchDay(ctx context.Context, day time.Time) *live.Stream[[]models.Event] {
	return s.events.WatchByDay(ctx, day, s.loc)
}

// WatchRange streams events starting within [start, end]
func (s *EventService) WatchRange(ctx context.Context, start, end time.Time) *live.Stream[[]models.Event] {
	return s.events.WatchByDateRange(ctx, start, end)
}

// WatchUpcoming streams events that have not started before now
func (s *EventService) WatchUpcoming(ctx context.Context, now time.Time) *live.Stream[[]models.Event] {
	return s.events.WatchUpcoming(ctx, now)
}

// WatchByStatus streams events in the given state
func (s *EventService) WatchByStatus(ctx context.Context, status models.EventStatus) *live.Stream[[]models.Event] {
	return s.events.WatchByStatus(ctx, status)
}

// WatchSearch streams events matching text; empty text streams all
func (s *EventService) WatchSearch(ctx context.Context, text string) *live.Stream[[]models.Event] {
	if strings.TrimSpace(text) == "" {
		return s.events.WatchAll(ctx)
	}
	return s.events.WatchSearch(ctx, text)
}

// WatchWithAttendance streams an event with its marks
func (s *EventService) WatchWithAttendance(ctx context.Context, id int64) *live.Stream[*models.EventWithAttendance] {
	return s.events.WatchWithAttendance(ctx, id)
}

// Get returns an event, or nil when it does not exist
func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	return read(ctx, s.run, "get event", func(ctx context.Context) (*models.Event, error) {
		return s.events.ByID(ctx, id)
	})
}

// Range returns events starting within [start, end]
func (s *EventService) Range(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	return read(ctx, s.run, "events in range", func(ctx context.Context) ([]models.Event, error) {
		return s.events.ByDateRange(ctx, start, end)
	})
}

// Create validates and stores a new event
func (s *EventService) Create(ctx context.Context, e *models.Event) (int64, error) {
	const op = "create event"
	e.Title = strings.TrimSpace(e.Title)
	if err := validation.Struct(e); err != nil {
		return 0, s.run.fail(op, err)
	}
	return s.run.Insert(ctx, op, func(ctx context.Context) (int64, error) {
		return s.events.Insert(ctx, e)
	})
}

// Update validates and saves an event
func (s *EventService) Update(ctx context.Context, e *models.Event) error {
	const op = "update event"
	e.Title = strings.TrimSpace(e.Title)
	if err := validation.Struct(e); err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.events.Update(ctx, e)
	})
}

// UpdateStatus moves an event to another lifecycle state without touching
// any other field
func (s *EventService) UpdateStatus(ctx context.Context, id int64, status models.EventStatus) error {
	const op = "update event status"
	if !status.Valid() {
		return s.run.fail(op, ErrInvalidStatus)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.events.UpdateStatus(ctx, id, status)
	})
}

// Delete removes an event and its attendance marks
func (s *EventService) Delete(ctx context.Context, id int64) error {
	return s.run.Write(ctx, "delete event", func(ctx context.Context) error {
		return s.events.Delete(ctx, id)
	})
}
