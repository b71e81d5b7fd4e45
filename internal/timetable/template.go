package timetable

import (
	"fmt"
	"sort"

	"github.com/edukita/timetable-api/internal/models"
	appErrors "github.com/edukita/timetable-api/pkg/errors"
)

// CellKind tags a schedule cell as assignable or as a fixed non-teaching window.
type CellKind string

const (
	CellTeachable CellKind = "TEACHABLE"
	CellBreak     CellKind = "BREAK"
	CellLunch     CellKind = "LUNCH"
)

// Cell is one (day, slot) window of the resolved weekly grid.
type Cell struct {
	Day       int      `json:"day"`
	Slot      int      `json:"slot"`
	Kind      CellKind `json:"kind"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
}

type cellKey struct {
	Day  int
	Slot int
}

// Grid is the resolved weekly schedule structure for one section: every
// working day expanded into ordered cells with concrete time windows.
type Grid struct {
	Days        []int
	SlotsPerDay int
	cells       map[cellKey]Cell
}

// ResolveTemplate expands a period template into a weekly grid over the given
// working days, tagging break and lunch slots as non-teachable and computing
// each slot's start/end time from the template start time and slot duration.
func ResolveTemplate(tpl *models.PeriodTemplate, workingDays []int) (*Grid, error) {
	if tpl.TotalSlotsPerDay < 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, "total slots per day must be at least 1")
	}
	if tpl.SlotDurationMinutes < 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, "slot duration must be at least 1 minute")
	}
	if len(workingDays) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, "session has no working days")
	}

	startMinutes, err := parseClock(tpl.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, fmt.Sprintf("invalid start time %q", tpl.StartTime))
	}

	breaks := make(map[int]bool, len(tpl.BreakSlots))
	for _, raw := range tpl.BreakSlots {
		slot := int(raw)
		if slot < 1 || slot > tpl.TotalSlotsPerDay {
			return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, fmt.Sprintf("break slot %d outside [1, %d]", slot, tpl.TotalSlotsPerDay))
		}
		if breaks[slot] {
			return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, fmt.Sprintf("break slot %d listed twice", slot))
		}
		breaks[slot] = true
	}
	if tpl.LunchSlot != 0 {
		if tpl.LunchSlot < 1 || tpl.LunchSlot > tpl.TotalSlotsPerDay {
			return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, fmt.Sprintf("lunch slot %d outside [1, %d]", tpl.LunchSlot, tpl.TotalSlotsPerDay))
		}
		if breaks[tpl.LunchSlot] {
			return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, fmt.Sprintf("lunch slot %d overlaps a break slot", tpl.LunchSlot))
		}
	}

	days := make([]int, len(workingDays))
	copy(days, workingDays)
	sort.Ints(days)

	grid := &Grid{
		Days:        days,
		SlotsPerDay: tpl.TotalSlotsPerDay,
		cells:       make(map[cellKey]Cell, len(days)*tpl.TotalSlotsPerDay),
	}
	for _, day := range days {
		minutes := startMinutes
		for slot := 1; slot <= tpl.TotalSlotsPerDay; slot++ {
			kind := CellTeachable
			if breaks[slot] {
				kind = CellBreak
			} else if slot == tpl.LunchSlot {
				kind = CellLunch
			}
			end := (minutes + tpl.SlotDurationMinutes) % (24 * 60)
			grid.cells[cellKey{Day: day, Slot: slot}] = Cell{
				Day:       day,
				Slot:      slot,
				Kind:      kind,
				StartTime: formatClock(minutes),
				EndTime:   formatClock(end),
			}
			minutes = end
		}
	}
	return grid, nil
}

// Cell returns the cell at (day, slot) if it exists in the grid.
func (g *Grid) Cell(day, slot int) (Cell, bool) {
	c, ok := g.cells[cellKey{Day: day, Slot: slot}]
	return c, ok
}

// IsTeachable reports whether (day, slot) is an assignable cell.
func (g *Grid) IsTeachable(day, slot int) bool {
	c, ok := g.cells[cellKey{Day: day, Slot: slot}]
	return ok && c.Kind == CellTeachable
}

// TeachableCells returns all assignable cells ordered by day then slot.
func (g *Grid) TeachableCells() []Cell {
	cells := make([]Cell, 0, len(g.cells))
	for _, day := range g.Days {
		for slot := 1; slot <= g.SlotsPerDay; slot++ {
			if c, ok := g.cells[cellKey{Day: day, Slot: slot}]; ok && c.Kind == CellTeachable {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// TeachablePerDay returns the number of assignable slots in one day.
func (g *Grid) TeachablePerDay() int {
	if len(g.Days) == 0 {
		return 0
	}
	count := 0
	for slot := 1; slot <= g.SlotsPerDay; slot++ {
		if g.IsTeachable(g.Days[0], slot) {
			count++
		}
	}
	return count
}

// TeachablePerWeek returns the weekly assignable capacity of the grid.
func (g *Grid) TeachablePerWeek() int {
	return g.TeachablePerDay() * len(g.Days)
}

func parseClock(raw string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value out of range: %s", raw)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
