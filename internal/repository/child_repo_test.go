package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"vozhatapp/internal/models"
)

func TestChildCRUD(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	c := &models.Child{
		Name: "Anna", LastName: "Petrova", Age: 11, SquadName: "Eagles",
		ParentPhone: strPtr("+7 900 000-00-00"), MedicalNotes: strPtr("pollen allergy"),
	}
	id, err := r.children.Insert(ctx, c)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id == 0 || c.ID != id {
		t.Fatalf("Insert() id = %d, c.ID = %d", id, c.ID)
	}

	got, err := r.children.ByID(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("ByID() = %v, %v", got, err)
	}
	if got.Name != "Anna" || got.ParentPhone == nil || *got.ParentPhone != "+7 900 000-00-00" || got.Address != nil {
		t.Errorf("ByID() = %+v", got)
	}
	if !got.CreatedAt.Equal(c.CreatedAt.Truncate(time.Millisecond)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, c.CreatedAt)
	}

	got.Age = 12
	got.MedicalNotes = nil
	if err := r.children.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	again, _ := r.children.ByID(ctx, id)
	if again.Age != 12 || again.MedicalNotes != nil {
		t.Errorf("after Update() = %+v", again)
	}

	missing := *again
	missing.ID = id + 100
	if err := r.children.Update(ctx, &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() of missing child error = %v, want ErrNotFound", err)
	}

	if none, err := r.children.ByID(ctx, id+100); none != nil || err != nil {
		t.Errorf("ByID() of missing = %v, %v; want nil, nil", none, err)
	}
}

func TestChildSearch(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	r.child(t, "Anna", "Petrova", "Eagles")
	r.child(t, "Boris", "Sokolov", "Eagles")
	r.child(t, "Вера", "Смирнова", "Wolves")

	tests := []struct {
		text string
		want []string
	}{
		{"an", []string{"Anna"}},
		{"AN", []string{"Anna"}},
		{"soko", []string{"Boris"}},
		{"вер", []string{"Вера"}},
		{"СМИР", []string{"Вера"}},
		{"%", nil},
		{"zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := r.children.Search(ctx, tt.text)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) = %d rows, want %d", tt.text, len(got), len(tt.want))
			}
			for i, c := range got {
				if c.Name != tt.want[i] {
					t.Errorf("Search(%q)[%d] = %s, want %s", tt.text, i, c.Name, tt.want[i])
				}
			}
		})
	}
}

func TestChildSquads(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	r.child(t, "Anna", "Petrova", "Wolves")
	r.child(t, "Boris", "Ivanov", "Eagles")
	r.child(t, "Clara", "Orlova", "Eagles")

	squads, err := r.children.Squads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(squads) != 2 || squads[0] != "Eagles" || squads[1] != "Wolves" {
		t.Errorf("Squads() = %v", squads)
	}

	eagles, err := r.children.BySquad(ctx, "Eagles")
	if err != nil {
		t.Fatal(err)
	}
	if len(eagles) != 2 || eagles[0].Name != "Boris" {
		t.Errorf("BySquad() = %+v", eagles)
	}

	if n, _ := r.children.Count(ctx); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestChildDeleteCascades(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	anna := r.child(t, "Anna", "Petrova", "Eagles")
	boris := r.child(t, "Boris", "Ivanov", "Eagles")
	ev := r.event(t, "Lineup", time.Now())

	for _, id := range []int64{anna, boris} {
		if _, err := r.attendance.Insert(ctx, &models.Attendance{EventID: ev, ChildID: id, Present: true}); err != nil {
			t.Fatal(err)
		}
		if _, err := r.achievements.Insert(ctx, &models.Achievement{ChildID: id, Title: "Swim", Points: 5}); err != nil {
			t.Fatal(err)
		}
		if _, err := r.notes.Insert(ctx, &models.Note{Title: "Note", ChildID: &id}); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.children.Delete(ctx, anna); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if att, _ := r.attendance.ByChild(ctx, anna); len(att) != 0 {
		t.Errorf("attendance left = %d", len(att))
	}
	if ach, _ := r.achievements.ByChild(ctx, anna); len(ach) != 0 {
		t.Errorf("achievements left = %d", len(ach))
	}
	if notes, _ := r.notes.ByChild(ctx, anna); len(notes) != 0 {
		t.Errorf("notes left = %d", len(notes))
	}

	// Boris is untouched
	if att, _ := r.attendance.ByChild(ctx, boris); len(att) != 1 {
		t.Errorf("other child's attendance = %d, want 1", len(att))
	}

	if err := r.children.Delete(ctx, anna); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestChildWithDetails(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	id := r.child(t, "Anna", "Petrova", "Eagles")

	for _, p := range []int{10, 5} {
		if _, err := r.achievements.Insert(ctx, &models.Achievement{ChildID: id, Title: "Win", Points: p}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.notes.Insert(ctx, &models.Note{Title: "Call parents", ChildID: &id}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.notes.Insert(ctx, &models.Note{Title: "General"}); err != nil {
		t.Fatal(err)
	}

	d, err := r.children.WithDetails(ctx, id)
	if err != nil || d == nil {
		t.Fatalf("WithDetails() = %v, %v", d, err)
	}
	if d.Child.ID != id || len(d.Notes) != 1 || len(d.Achievements) != 2 || d.TotalPoints() != 15 {
		t.Errorf("WithDetails() = %+v", d)
	}

	if none, err := r.children.WithDetails(ctx, id+1); none != nil || err != nil {
		t.Errorf("WithDetails() of missing = %v, %v", none, err)
	}
}

func TestWatchChildren(t *testing.T) {
	r := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := r.children.WatchSearch(ctx, "an")
	defer s.Close()

	u, ok := s.Next(ctx)
	if !ok || u.Err != nil || len(u.Value) != 0 {
		t.Fatalf("initial = %+v, %v", u, ok)
	}

	r.child(t, "Anna", "Petrova", "Eagles")

	u, ok = s.Next(ctx)
	if !ok || u.Err != nil || len(u.Value) != 1 || u.Value[0].Name != "Anna" {
		t.Fatalf("after insert = %+v, %v", u, ok)
	}
}
