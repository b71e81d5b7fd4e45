package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a weekly grid into a printable landscape PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws the grid with slot labels down the left edge and one column
// per working day. Multi-line cell text is split on newlines.
func (e *PDFExporter) Render(grid WeeklyGrid) ([]byte, error) {
	if len(grid.DayHeaders) == 0 {
		return nil, fmt.Errorf("pdf requires at least one day column")
	}
	if len(grid.Cells) != len(grid.SlotLabels) {
		return nil, fmt.Errorf("pdf grid has %d rows but %d slot labels", len(grid.Cells), len(grid.SlotLabels))
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(grid.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	const labelWidth = 38.0
	colWidth := (277.0 - labelWidth) / float64(len(grid.DayHeaders))

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(labelWidth, 8, "Slot", "1", 0, "C", false, 0, "")
	for _, day := range grid.DayHeaders {
		pdf.CellFormat(colWidth, 8, day, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, row := range grid.Cells {
		if len(row) != len(grid.DayHeaders) {
			return nil, fmt.Errorf("pdf row %d has %d cells, want %d", i, len(row), len(grid.DayHeaders))
		}
		pdf.CellFormat(labelWidth, 12, grid.SlotLabels[i], "1", 0, "C", false, 0, "")
		x, y := pdf.GetXY()
		for _, cell := range row {
			lines := strings.SplitN(cell, "\n", 2)
			pdf.MultiCell(colWidth, 6, strings.Join(lines, "\n"), "1", "C", false)
			x += colWidth
			pdf.SetXY(x, y)
		}
		pdf.SetXY(10, y+12)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
