package timetable

import (
	"sort"

	"github.com/edukita/timetable-api/internal/models"
)

// warningCollector accumulates soft-constraint violations and unfilled cells
// during a run. Warnings never block a commit; they surface on the response
// in a deterministic order.
type warningCollector struct {
	warnings []models.Warning
}

func newWarningCollector() *warningCollector {
	return &warningCollector{}
}

func (c *warningCollector) add(w models.Warning) {
	c.warnings = append(c.warnings, w)
}

func (c *warningCollector) sorted() []models.Warning {
	sort.Slice(c.warnings, func(i, j int) bool {
		a, b := c.warnings[i], c.warnings[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		return a.TeacherID < b.TeacherID
	})
	return c.warnings
}
