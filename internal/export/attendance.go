package export

import (
	"fmt"
	"io"
	"time"

	"vozhatapp/internal/models"
)

const (
	SheetAttendance = "Attendance"
	SheetEvents     = "Events"
)

// AttendanceReport is the input of an attendance workbook
type AttendanceReport struct {
	Events   []models.Event
	Children []models.Child
	Marks    []models.Attendance
	Location *time.Location
}

// WriteAttendance renders a children by events grid. A cell holds "+" for
// present, "-" for absent and stays empty when nobody marked the child.
// The last column is the child's rate over marked events.
func WriteAttendance(w io.Writer, r AttendanceReport) error {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}

	f, err := newWorkbook(SheetAttendance)
	if err != nil {
		return err
	}
	defer f.Close()

	type key struct{ event, child int64 }
	marks := make(map[key]bool, len(r.Marks))
	for _, m := range r.Marks {
		marks[key{m.EventID, m.ChildID}] = m.Present
	}

	header := []any{"Child", "Squad"}
	for _, e := range r.Events {
		header = append(header, fmt.Sprintf("%s %s", e.StartTime.In(loc).Format("02.01 15:04"), e.Title))
	}
	header = append(header, "Rate")
	if err := writeRow(f, SheetAttendance, 1, header...); err != nil {
		return err
	}

	for i, c := range r.Children {
		row := []any{c.FullName(), c.SquadName}
		var stats models.AttendanceStats
		for _, e := range r.Events {
			present, ok := marks[key{e.ID, c.ID}]
			switch {
			case !ok:
				row = append(row, "")
			case present:
				stats.Total++
				stats.Present++
				row = append(row, "+")
			default:
				stats.Total++
				row = append(row, "-")
			}
		}
		row = append(row, fmt.Sprintf("%.0f%%", stats.Rate()*100))
		if err := writeRow(f, SheetAttendance, i+2, row...); err != nil {
			return err
		}
	}
	if err := formatHeader(f, SheetAttendance); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetEvents); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	if err := writeRow(f, SheetEvents, 1, "Event", "Start", "End", "Location", "Status", "Present", "Marked"); err != nil {
		return err
	}
	for i, e := range r.Events {
		var stats models.AttendanceStats
		for _, m := range r.Marks {
			if m.EventID != e.ID {
				continue
			}
			stats.Total++
			if m.Present {
				stats.Present++
			}
		}
		location := ""
		if e.Location != nil {
			location = *e.Location
		}
		if err := writeRow(f, SheetEvents, i+2,
			e.Title,
			e.StartTime.In(loc).Format("2006-01-02 15:04"),
			e.EndTime.In(loc).Format("2006-01-02 15:04"),
			location, e.Status.String(), stats.Present, stats.Total); err != nil {
			return err
		}
	}
	if err := formatHeader(f, SheetEvents); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
