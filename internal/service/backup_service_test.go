package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"vozhatapp/internal/models"
)

func TestBackupRoundTrip(t *testing.T) {
	src := setup(t)
	ctx := context.Background()

	if _, err := src.users.Register(ctx, "Olga", "olga@camp.ru", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	anna := src.child(t, "Anna", "Petrova", "Eagles")
	ev := src.event(t, "Hike", time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC))
	if err := src.attendance.MarkAttendance(ctx, ev, anna, true, nil, nil); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}
	if _, err := src.achievements.Award(ctx, &models.Achievement{ChildID: anna, Title: "Helper", Points: 5, Date: time.Now()}); err != nil {
		t.Fatalf("Award: %v", err)
	}
	if _, err := src.notes.Create(ctx, &models.Note{Title: "Allergy", ChildID: &anna, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Create note: %v", err)
	}
	if _, err := src.games.Create(ctx, &models.Game{Title: "Tag", Category: "active"}); err != nil {
		t.Fatalf("Create game: %v", err)
	}

	var buf bytes.Buffer
	exported, err := src.backup.Export(ctx, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exported.ID == "" || exported.Version != BackupVersion {
		t.Errorf("backup header = %q/%q", exported.ID, exported.Version)
	}

	var decoded BackupData
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	dst := setup(t)
	if _, err := dst.backup.Import(ctx, bytes.NewReader(buf.Bytes()), false); err != nil {
		t.Fatalf("Import: %v", err)
	}

	rate, err := dst.children.AttendanceRate(ctx, anna)
	if err != nil || rate != 1 {
		t.Errorf("AttendanceRate after import = %v, %v", rate, err)
	}
	if total, _ := dst.achievements.TotalPoints(ctx, anna); total != 5 {
		t.Errorf("TotalPoints after import = %d, want 5", total)
	}
	if _, err := dst.users.Authenticate(ctx, "olga@camp.ru", "password123"); err != nil {
		t.Errorf("Authenticate after import: %v", err)
	}

	// A second import without clearing collides on IDs and changes nothing.
	_, err = dst.backup.Import(ctx, bytes.NewReader(buf.Bytes()), false)
	expectKind(t, err, KindConflict)
	if n, _ := dst.children.Count(ctx); n != 1 {
		t.Errorf("children after failed import = %d, want 1", n)
	}

	if _, err := dst.backup.Import(ctx, bytes.NewReader(buf.Bytes()), true); err != nil {
		t.Fatalf("Import with clear: %v", err)
	}
	if n, _ := dst.children.Count(ctx); n != 1 {
		t.Errorf("children after clear import = %d, want 1", n)
	}

	// New rows keep getting fresh IDs after an import.
	next := dst.child(t, "Boris", "Sokolov", "Foxes")
	if next <= anna {
		t.Errorf("new child ID %d not after imported %d", next, anna)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	s := setup(t)
	_, err := s.backup.Import(context.Background(), bytes.NewReader([]byte("{not json")), true)
	expectKind(t, err, KindUnexpected)
}
