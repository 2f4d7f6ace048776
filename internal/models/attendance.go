package models

import "time"

// Attendance records whether a child was present at an event.
// At most one row exists per (EventID, ChildID).
type Attendance struct {
	ID       int64
	EventID  int64 `validate:"required"`
	ChildID  int64 `validate:"required"`
	Present  bool
	Note     *string
	MarkedBy *int64
	MarkedAt time.Time
}

// AttendanceStats holds aggregate attendance counts
type AttendanceStats struct {
	Total   int
	Present int
}

// Rate returns Present/Total, or 0 when there are no rows
func (s AttendanceStats) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Present) / float64(s.Total)
}
