// Package export renders camp data as Excel workbooks.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// formatHeader makes row 1 bold, puts a filter on it and sizes the columns
// by content length.
func formatHeader(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return nil
	}

	last := columnName(cols) + "1"
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}
	_ = f.AutoFilter(sheet, "A1:"+last, nil)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	widths := make([]float64, cols)
	for c := range widths {
		widths[c] = 8
	}
	for rIdx, row := range rows {
		for cIdx, v := range row {
			w := float64(len([]rune(v))) * 1.1
			if rIdx == 0 {
				w += 1.5
			}
			if w > 50 {
				w = 50
			}
			if w > widths[cIdx] {
				widths[cIdx] = w
			}
		}
	}
	for i, w := range widths {
		col := columnName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// columnName converts a 1-based index to letters: 1 -> A, 27 -> AA
func columnName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func cell(col, row int) string {
	return fmt.Sprintf("%s%d", columnName(col), row)
}

// writeRow fills a row starting at column A
func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		if err := f.SetCellValue(sheet, cell(i+1, row), v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell(i+1, row), err)
		}
	}
	return nil
}

// newWorkbook returns a file whose default sheet is renamed to first
func newWorkbook(first string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	return f, nil
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

func sanitizeFileName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return invalidFileRe.ReplaceAllString(s, "_")
}

// AttendanceFilename builds a file name for an attendance report
func AttendanceFilename(from, to time.Time) string {
	return sanitizeFileName(fmt.Sprintf("attendance %s - %s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02")))
}

// RankingFilename builds a file name for a ranking export; squad may be empty
func RankingFilename(squad string, at time.Time) string {
	if strings.TrimSpace(squad) == "" {
		squad = "camp"
	}
	return sanitizeFileName(fmt.Sprintf("ranking %s %s.xlsx", squad, at.Format("2006-01-02")))
}
