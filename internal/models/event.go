package models

import "time"

// EventStatus is the lifecycle state of an event
type EventStatus int

const (
	EventUpcoming   EventStatus = 0
	EventInProgress EventStatus = 1
	EventCompleted  EventStatus = 2
)

// Valid reports whether s is one of the three known statuses
func (s EventStatus) Valid() bool {
	return s >= EventUpcoming && s <= EventCompleted
}

func (s EventStatus) String() string {
	switch s {
	case EventUpcoming:
		return "upcoming"
	case EventInProgress:
		return "in_progress"
	case EventCompleted:
		return "completed"
	}
	return "unknown"
}

// Event represents a scheduled camp activity
type Event struct {
	ID          int64
	Title       string `validate:"required,max=200"`
	Description *string
	StartTime   time.Time `validate:"required"`
	EndTime     time.Time `validate:"required,gtefield=StartTime"`
	Location    *string
	Status      EventStatus `validate:"oneof=0 1 2"`
	CreatedBy   *int64
	CreatedAt   time.Time
}

// Duration returns the planned length of the event
func (e Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// EventWithAttendance combines an event with the children marked for it
type EventWithAttendance struct {
	Event      Event
	Children   []Child
	Attendance []Attendance
}

// PresentCount returns how many attendance rows are marked present
func (e EventWithAttendance) PresentCount() int {
	n := 0
	for _, a := range e.Attendance {
		if a.Present {
			n++
		}
	}
	return n
}
