// Package export renders fixed-layout documents from rows the caller has
// already fetched through an authorized read. It performs no data access
// and no authorization of its own.
package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/trackteamhq/portal/internal/models"
)

// MeetSheet writes a printable PDF lineup for one meet: a table of event,
// athlete, and status rows, grouped the way the assignments list orders
// them (by event, then athlete).
func MeetSheet(w io.Writer, meet *models.Meet, assignments []models.AssignmentDetail) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s — Meet Sheet", meet.Name), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, meet.Name)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("%s — %s", meet.MeetDate.Format("January 2, 2006"), meet.Location))
	pdf.Ln(12)

	colWidths := []float64{60.0, 80.0, 40.0}
	headers := []string{"Event", "Athlete", "Status"}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	if len(assignments) == 0 {
		pdf.CellFormat(colWidths[0]+colWidths[1]+colWidths[2], 8, "No assignments yet", "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
	for _, a := range assignments {
		pdf.CellFormat(colWidths[0], 8, a.EventName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, a.AthleteName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, a.Status, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render meet sheet: %w", err)
	}
	return nil
}
