package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"vozhatapp/internal/models"
)

func open(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func value(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("GetCellValue(%s, %s): %v", sheet, ref, err)
	}
	return v
}

func TestWriteAttendance(t *testing.T) {
	start := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	report := AttendanceReport{
		Events: []models.Event{
			{ID: 1, Title: "Run", StartTime: start, EndTime: start.Add(time.Hour)},
			{ID: 2, Title: "Hike", StartTime: start.Add(24 * time.Hour), EndTime: start.Add(26 * time.Hour)},
		},
		Children: []models.Child{
			{ID: 10, Name: "Anna", LastName: "Petrova", SquadName: "Eagles"},
			{ID: 11, Name: "Boris", LastName: "Sokolov", SquadName: "Foxes"},
		},
		Marks: []models.Attendance{
			{EventID: 1, ChildID: 10, Present: true},
			{EventID: 2, ChildID: 10, Present: false},
			{EventID: 1, ChildID: 11, Present: true},
		},
		Location: time.UTC,
	}

	var buf bytes.Buffer
	if err := WriteAttendance(&buf, report); err != nil {
		t.Fatalf("WriteAttendance: %v", err)
	}
	f := open(t, &buf)

	tests := []struct {
		sheet, ref, want string
	}{
		{SheetAttendance, "A1", "Child"},
		{SheetAttendance, "C1", "01.07 10:00 Run"},
		{SheetAttendance, "E1", "Rate"},
		{SheetAttendance, "A2", "Anna Petrova"},
		{SheetAttendance, "C2", "+"},
		{SheetAttendance, "D2", "-"},
		{SheetAttendance, "E2", "50%"},
		{SheetAttendance, "D3", ""},
		{SheetAttendance, "E3", "100%"},
		{SheetEvents, "A2", "Run"},
		{SheetEvents, "F2", "2"},
		{SheetEvents, "G3", "1"},
		{SheetEvents, "E2", "upcoming"},
	}
	for _, tt := range tests {
		t.Run(tt.sheet+" "+tt.ref, func(t *testing.T) {
			if got := value(t, f, tt.sheet, tt.ref); got != tt.want {
				t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.ref, got, tt.want)
			}
		})
	}
}

func TestWriteRankingSharesPlaces(t *testing.T) {
	ranking := []models.ChildRanking{
		{ID: 2, Name: "Boris", LastName: "Sokolov", SquadName: "Foxes", TotalPoints: 12},
		{ID: 1, Name: "Anna", LastName: "Petrova", SquadName: "Eagles", TotalPoints: 12},
		{ID: 3, Name: "Vera", SquadName: "Eagles", TotalPoints: 0},
	}
	var buf bytes.Buffer
	if err := WriteRanking(&buf, ranking); err != nil {
		t.Fatalf("WriteRanking: %v", err)
	}
	f := open(t, &buf)

	rows, err := f.GetRows(SheetRanking)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	wantPlaces := []string{"1", "1", "3"}
	for i, want := range wantPlaces {
		if rows[i+1][0] != want {
			t.Errorf("row %d place = %q, want %q", i+2, rows[i+1][0], want)
		}
	}
	if rows[3][1] != "Vera" {
		t.Errorf("name without last name = %q", rows[3][1])
	}
}

func TestFilenames(t *testing.T) {
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if got := AttendanceFilename(day, day.AddDate(0, 0, 6)); got != "attendance 2026-07-01 - 2026-07-07.xlsx" {
		t.Errorf("AttendanceFilename = %q", got)
	}
	if got := RankingFilename(" ", day); got != "ranking camp 2026-07-01.xlsx" {
		t.Errorf("RankingFilename blank = %q", got)
	}
	if got := RankingFilename("Eagles/1", day); got != "ranking Eagles_1 2026-07-01.xlsx" {
		t.Errorf("RankingFilename = %q", got)
	}
}

func TestColumnName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"} {
		if got := columnName(n); got != want {
			t.Errorf("columnName(%d) = %q, want %q", n, got, want)
		}
	}
}
