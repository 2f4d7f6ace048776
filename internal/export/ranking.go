package export

import (
	"fmt"
	"io"

	"vozhatapp/internal/models"
)

const SheetRanking = "Ranking"

// WriteRanking renders the leaderboard in the given order. Children with
// equal points share a place.
func WriteRanking(w io.Writer, ranking []models.ChildRanking) error {
	f, err := newWorkbook(SheetRanking)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeRow(f, SheetRanking, 1, "Place", "Child", "Squad", "Points"); err != nil {
		return err
	}
	place := 0
	for i, r := range ranking {
		if i == 0 || r.TotalPoints != ranking[i-1].TotalPoints {
			place = i + 1
		}
		name := models.Child{Name: r.Name, LastName: r.LastName}.FullName()
		if err := writeRow(f, SheetRanking, i+2, place, name, r.SquadName, r.TotalPoints); err != nil {
			return err
		}
	}
	if err := formatHeader(f, SheetRanking); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
