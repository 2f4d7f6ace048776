package viewmodel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vozhatapp/internal/models"
	"vozhatapp/internal/service"
)

type eventsSource struct {
	Notice
	Day    time.Time
	Events []models.Event
	Loaded bool
}

// EventsState is the day schedule
type EventsState struct {
	Day        time.Time
	Events     []models.Event
	InProgress int
	Completed  int
	Loading    bool
	Empty      bool
	Message    string
}

// mergeEvents counts running and finished events of the day
func mergeEvents(s eventsSource) EventsState {
	st := EventsState{
		Day:     s.Day,
		Events:  s.Events,
		Loading: !s.Loaded,
		Empty:   s.Loaded && len(s.Events) == 0,
		Message: s.Message,
	}
	for _, e := range s.Events {
		switch e.Status {
		case models.EventInProgress:
			st.InProgress++
		case models.EventCompleted:
			st.Completed++
		}
	}
	return st
}

// Events shows the schedule of the selected day
type Events struct {
	*Store[eventsSource, EventsState]
	events *service.EventService
	log    *zap.Logger
}

// NewEvents opens the schedule on the day containing day. Days follow the
// event service's location.
func NewEvents(ctx context.Context, day time.Time, events *service.EventService, log *zap.Logger) *Events {
	v := &Events{
		Store:  NewStore(ctx, eventsSource{}, mergeEvents),
		events: events,
		log:    orNop(log),
	}
	v.SelectDay(day)
	return v
}

// SelectDay switches the schedule to the day containing day
func (v *Events) SelectDay(day time.Time) {
	midnight := v.events.StartOfDay(day)
	reset := func(s *eventsSource) {
		s.Day = midnight
		s.Events = nil
		s.Loaded = false
	}
	Rebind(v.Store, "events", v.events.WatchDay(v.Context(), midnight), reset, func(s *eventsSource, events []models.Event, err error) {
		s.Loaded = true
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Events = events
	})
}

// NextDay moves the schedule one day forward
func (v *Events) NextDay() {
	v.SelectDay(v.Current().Day.AddDate(0, 0, 1))
}

// PreviousDay moves the schedule one day back
func (v *Events) PreviousDay() {
	v.SelectDay(v.Current().Day.AddDate(0, 0, -1))
}

func (v *Events) fail(err error) error {
	if err != nil {
		v.Update(func(s *eventsSource) { s.report(v.log, err) })
	}
	return err
}

// Create schedules a new event
func (v *Events) Create(ctx context.Context, e models.Event) (int64, error) {
	id, err := v.events.Create(ctx, &e)
	return id, v.fail(err)
}

// SetStatus moves an event to another lifecycle state
func (v *Events) SetStatus(ctx context.Context, id int64, status models.EventStatus) error {
	return v.fail(v.events.UpdateStatus(ctx, id, status))
}

// Delete removes an event with its marks
func (v *Events) Delete(ctx context.Context, id int64) error {
	return v.fail(v.events.Delete(ctx, id))
}

func (v *Events) MessageShown() {
	v.Update(func(s *eventsSource) { s.clear() })
}

type attendanceSource struct {
	Notice
	Event          *models.EventWithAttendance
	Children       []models.Child
	EventLoaded    bool
	ChildrenLoaded bool
}

// AttendanceRow is one child on the attendance sheet. Marked is false while
// nobody recorded the child for the event.
type AttendanceRow struct {
	Child   models.Child
	Marked  bool
	Present bool
	Note    *string
}

// EventAttendanceState is the roll call of one event
type EventAttendanceState struct {
	Event    *models.Event
	Rows     []AttendanceRow
	Present  int
	Marked   int
	Loading  bool
	NotFound bool
	Message  string
}

// mergeAttendance lists every child with the event's mark, if any
func mergeAttendance(s attendanceSource) EventAttendanceState {
	st := EventAttendanceState{
		Loading: !s.EventLoaded || !s.ChildrenLoaded,
		Message: s.Message,
	}
	if s.Event == nil {
		st.NotFound = s.EventLoaded
		return st
	}
	event := s.Event.Event
	st.Event = &event

	marks := make(map[int64]models.Attendance, len(s.Event.Attendance))
	for _, a := range s.Event.Attendance {
		marks[a.ChildID] = a
	}
	st.Rows = make([]AttendanceRow, 0, len(s.Children))
	for _, c := range s.Children {
		row := AttendanceRow{Child: c}
		if a, ok := marks[c.ID]; ok {
			row.Marked, row.Present, row.Note = true, a.Present, a.Note
			st.Marked++
			if a.Present {
				st.Present++
			}
		}
		st.Rows = append(st.Rows, row)
	}
	return st
}

// EventAttendance lets a counselor take the roll call of an event
type EventAttendance struct {
	*Store[attendanceSource, EventAttendanceState]
	eventID    int64
	markedBy   *int64
	attendance *service.AttendanceService
	log        *zap.Logger
}

// NewEventAttendance follows the event and the camp's children.
// Marks are recorded as markedBy.
func NewEventAttendance(ctx context.Context, eventID int64, markedBy *int64, events *service.EventService,
	children *service.ChildService, attendance *service.AttendanceService, log *zap.Logger) *EventAttendance {
	v := &EventAttendance{
		Store:      NewStore(ctx, attendanceSource{}, mergeAttendance),
		eventID:    eventID,
		markedBy:   markedBy,
		attendance: attendance,
		log:        orNop(log),
	}
	Bind(v.Store, "event", events.WatchWithAttendance(v.Context(), eventID), func(s *attendanceSource, e *models.EventWithAttendance, err error) {
		s.EventLoaded = true
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Event = e
	})
	Bind(v.Store, "children", children.WatchAll(v.Context()), func(s *attendanceSource, c []models.Child, err error) {
		s.ChildrenLoaded = true
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Children = c
	})
	return v
}

func (v *EventAttendance) fail(err error) error {
	if err != nil {
		v.Update(func(s *attendanceSource) { s.report(v.log, err) })
	}
	return err
}

// Mark records the child's presence, replacing an earlier mark
func (v *EventAttendance) Mark(ctx context.Context, childID int64, present bool, note *string) error {
	return v.fail(v.attendance.MarkAttendance(ctx, v.eventID, childID, present, note, v.markedBy))
}

// Toggle flips the child's mark as currently shown. An unmarked child
// becomes present.
func (v *EventAttendance) Toggle(ctx context.Context, childID int64) error {
	present := true
	for _, r := range v.Current().Rows {
		if r.Child.ID == childID && r.Marked {
			present = !r.Present
			break
		}
	}
	return v.Mark(ctx, childID, present, nil)
}

// MarkAll marks every child present or absent
func (v *EventAttendance) MarkAll(ctx context.Context, present bool) error {
	return v.fail(v.attendance.MarkAll(ctx, v.eventID, present, v.markedBy))
}

// Clear removes all marks of the event
func (v *EventAttendance) Clear(ctx context.Context) error {
	return v.fail(v.attendance.ClearEvent(ctx, v.eventID))
}

func (v *EventAttendance) MessageShown() {
	v.Update(func(s *attendanceSource) { s.clear() })
}
