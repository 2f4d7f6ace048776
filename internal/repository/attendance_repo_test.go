package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"vozhatapp/internal/database"
	"vozhatapp/internal/models"
)

func TestAttendanceDuplicatePairFails(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	child := r.child(t, "Anna", "Petrova", "Eagles")
	ev := r.event(t, "Lineup", time.Now())

	if _, err := r.attendance.Insert(ctx, &models.Attendance{EventID: ev, ChildID: child, Present: true}); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	_, err := r.attendance.Insert(ctx, &models.Attendance{EventID: ev, ChildID: child, Present: false})
	if !errors.Is(err, database.ErrUniqueViolation) {
		t.Fatalf("second Insert() error = %v, want unique violation", err)
	}

	rows, err := r.attendance.ByEvent(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || !rows[0].Present {
		t.Errorf("rows after duplicate = %+v, want the first mark only", rows)
	}
}

func TestAttendanceForeignKey(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	ev := r.event(t, "Lineup", time.Now())

	_, err := r.attendance.Insert(ctx, &models.Attendance{EventID: ev, ChildID: 999})
	if !errors.Is(err, database.ErrForeignKeyViolation) {
		t.Errorf("Insert() for missing child error = %v, want foreign key violation", err)
	}
}

func TestAttendanceInsertBatchAtomic(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	anna := r.child(t, "Anna", "Petrova", "Eagles")
	boris := r.child(t, "Boris", "Ivanov", "Eagles")
	ev := r.event(t, "Lineup", time.Now())

	err := r.attendance.InsertBatch(ctx, []models.Attendance{
		{EventID: ev, ChildID: anna, Present: true},
		{EventID: ev, ChildID: boris, Present: true},
		{EventID: ev, ChildID: anna, Present: false},
	})
	if !errors.Is(err, database.ErrUniqueViolation) {
		t.Fatalf("InsertBatch() error = %v, want unique violation", err)
	}
	if rows, _ := r.attendance.ByEvent(ctx, ev); len(rows) != 0 {
		t.Errorf("rows after failed batch = %d, want 0", len(rows))
	}

	if err := r.attendance.InsertBatch(ctx, nil); err != nil {
		t.Errorf("empty InsertBatch() error = %v", err)
	}
}

func TestAttendanceUpsert(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	child := r.child(t, "Anna", "Petrova", "Eagles")
	ev := r.event(t, "Lineup", time.Now())
	counselor := int64(3)

	if err := r.attendance.Upsert(ctx, &models.Attendance{EventID: ev, ChildID: child, Present: false}); err != nil {
		t.Fatal(err)
	}
	if err := r.attendance.Upsert(ctx, &models.Attendance{
		EventID: ev, ChildID: child, Present: true, Note: strPtr("late"), MarkedBy: &counselor,
	}); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	rows, _ := r.attendance.ByEvent(ctx, ev)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	a := rows[0]
	if !a.Present || a.Note == nil || *a.Note != "late" || a.MarkedBy == nil || *a.MarkedBy != counselor {
		t.Errorf("upserted row = %+v", a)
	}

	one, err := r.attendance.ByEventAndChild(ctx, ev, child)
	if err != nil || one == nil || one.ID != a.ID {
		t.Errorf("ByEventAndChild() = %+v, %v", one, err)
	}
	if none, err := r.attendance.ByEventAndChild(ctx, ev, child+1); none != nil || err != nil {
		t.Errorf("ByEventAndChild() of unmarked child = %+v, %v", none, err)
	}
}

func TestAttendanceUpsertBatch(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	anna := r.child(t, "Anna", "Petrova", "Eagles")
	boris := r.child(t, "Boris", "Ivanov", "Eagles")
	ev := r.event(t, "Lineup", time.Now())

	if _, err := r.attendance.Insert(ctx, &models.Attendance{EventID: ev, ChildID: anna, Present: false}); err != nil {
		t.Fatal(err)
	}
	if err := r.attendance.UpsertBatch(ctx, []models.Attendance{
		{EventID: ev, ChildID: anna, Present: true},
		{EventID: ev, ChildID: boris, Present: true},
	}); err != nil {
		t.Fatalf("UpsertBatch() error = %v", err)
	}

	stats, err := r.attendance.CountForEvent(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Present != 2 {
		t.Errorf("CountForEvent() = %+v, want 2/2", stats)
	}
}

func TestAttendanceCounts(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	anna := r.child(t, "Anna", "Petrova", "Eagles")
	lonely := r.child(t, "Boris", "Ivanov", "Eagles")

	for i, present := range []bool{true, false, true, true} {
		ev := r.event(t, "Event", time.Now().Add(time.Duration(i)*time.Hour))
		if _, err := r.attendance.Insert(ctx, &models.Attendance{EventID: ev, ChildID: anna, Present: present}); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := r.attendance.CountForChild(ctx, anna)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 4 || stats.Present != 3 || stats.Rate() != 0.75 {
		t.Errorf("CountForChild() = %+v", stats)
	}

	empty, err := r.attendance.CountForChild(ctx, lonely)
	if err != nil {
		t.Fatalf("CountForChild() without rows error = %v", err)
	}
	if empty.Total != 0 || empty.Present != 0 || empty.Rate() != 0 {
		t.Errorf("CountForChild() without rows = %+v", empty)
	}
}

func TestAttendanceUpdateDelete(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	child := r.child(t, "Anna", "Petrova", "Eagles")
	ev := r.event(t, "Lineup", time.Now())

	a := &models.Attendance{EventID: ev, ChildID: child}
	if _, err := r.attendance.Insert(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.Present = true
	if err := r.attendance.Update(ctx, a); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got, _ := r.attendance.ByEventAndChild(ctx, ev, child); got == nil || !got.Present {
		t.Errorf("after Update() = %+v", got)
	}

	if err := r.attendance.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := r.attendance.DeleteByEvent(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if rows, _ := r.attendance.ByEvent(ctx, ev); len(rows) != 0 {
		t.Errorf("rows after delete = %d", len(rows))
	}
}

func TestAttendanceMarkedAtDefaults(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	anna := r.child(t, "Anna", "Petrova", "Eagles")
	boris := r.child(t, "Boris", "Sokolov", "Foxes")
	ev := r.event(t, "Lineup", time.Now())
	before := time.Now().Add(-time.Second)

	inserted := models.Attendance{EventID: ev, ChildID: anna, Present: true}
	if _, err := r.attendance.Insert(ctx, &inserted); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	upserted := models.Attendance{EventID: ev, ChildID: boris}
	if err := r.attendance.Upsert(ctx, &upserted); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	rows, err := r.attendance.ByEvent(ctx, ev)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d marks, want 2", len(rows))
	}
	for _, a := range rows {
		if a.MarkedAt.Before(before) {
			t.Errorf("mark for child %d has MarkedAt %v, want now", a.ChildID, a.MarkedAt)
		}
	}
}
