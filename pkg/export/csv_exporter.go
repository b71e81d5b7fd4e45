package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// WeeklyGrid is a render-ready weekly timetable: one row per slot, one
// column per working day. Cells hold display text ("Mathematics / A. Sari")
// and are empty for free or unfilled cells.
type WeeklyGrid struct {
	Title      string
	DayHeaders []string
	SlotLabels []string
	Cells      [][]string
}

// CSVExporter renders a weekly grid into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the grid. The first column carries
// the slot label, the remaining columns follow DayHeaders.
func (e *CSVExporter) Render(grid WeeklyGrid) ([]byte, error) {
	if len(grid.DayHeaders) == 0 {
		return nil, fmt.Errorf("csv requires at least one day column")
	}
	if len(grid.Cells) != len(grid.SlotLabels) {
		return nil, fmt.Errorf("csv grid has %d rows but %d slot labels", len(grid.Cells), len(grid.SlotLabels))
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := append([]string{"Slot"}, grid.DayHeaders...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range grid.Cells {
		if len(row) != len(grid.DayHeaders) {
			return nil, fmt.Errorf("csv row %d has %d cells, want %d", i, len(row), len(grid.DayHeaders))
		}
		record := append([]string{grid.SlotLabels[i]}, row...)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
