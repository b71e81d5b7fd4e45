package timetable

import (
	"sort"

	"github.com/edukita/timetable-api/internal/models"
)

// Calendar is the cross-section view of teacher commitments for a session.
// The snapshot taken at run start is immutable; assignments made by the
// in-progress run live in a tentative overlay that the commit coordinator
// merges into the authoritative store only on success. An aborted run
// therefore leaves the shared calendar untouched.
type Calendar struct {
	snapshot  map[string]map[int]map[int]string
	tentative map[string]map[int]map[int]string
}

// NewCalendar builds a calendar from the pre-run commitment snapshot.
func NewCalendar(commitments []models.TeacherCommitment) *Calendar {
	c := &Calendar{
		snapshot:  make(map[string]map[int]map[int]string),
		tentative: make(map[string]map[int]map[int]string),
	}
	for _, cm := range commitments {
		set(c.snapshot, cm.TeacherID, cm.DayOfWeek, cm.SlotNumber, cm.SectionID)
	}
	return c
}

// IsFree reports whether the teacher has neither a snapshot commitment nor a
// tentative assignment from this run at (day, slot).
func (c *Calendar) IsFree(teacherID string, day, slot int) bool {
	return !has(c.snapshot, teacherID, day, slot) && !has(c.tentative, teacherID, day, slot)
}

// SnapshotFree ignores the run's own tentative assignments. Used by
// feasibility pre-flight, which reasons about the shared state only.
func (c *Calendar) SnapshotFree(teacherID string, day, slot int) bool {
	return !has(c.snapshot, teacherID, day, slot)
}

// Commit records a tentative assignment for this run.
func (c *Calendar) Commit(teacherID string, day, slot int, sectionID string) {
	set(c.tentative, teacherID, day, slot, sectionID)
}

// Release withdraws a tentative assignment during backtracking.
func (c *Calendar) Release(teacherID string, day, slot int) {
	if days, ok := c.tentative[teacherID]; ok {
		if slots, ok := days[day]; ok {
			delete(slots, slot)
		}
	}
}

// DailyLoad counts the teacher's committed plus tentative slots on a day.
func (c *Calendar) DailyLoad(teacherID string, day int) int {
	load := 0
	if slots, ok := c.snapshot[teacherID]; ok {
		load += len(slots[day])
	}
	if slots, ok := c.tentative[teacherID]; ok {
		load += len(slots[day])
	}
	return load
}

// ConsecutiveRun returns the length of the contiguous block of slots
// immediately preceding slot that the teacher already holds on that day.
// Placing into slot would extend a run of this length.
func (c *Calendar) ConsecutiveRun(teacherID string, day, slot int) int {
	run := 0
	for s := slot - 1; s >= 1; s-- {
		if has(c.snapshot, teacherID, day, s) || has(c.tentative, teacherID, day, s) {
			run++
			continue
		}
		break
	}
	return run
}

// Tentative returns this run's assignments in deterministic order.
func (c *Calendar) Tentative() []models.TeacherCommitment {
	var out []models.TeacherCommitment
	for teacherID, days := range c.tentative {
		for day, slots := range days {
			for slot, sectionID := range slots {
				out = append(out, models.TeacherCommitment{
					TeacherID:  teacherID,
					DayOfWeek:  day,
					SlotNumber: slot,
					SectionID:  sectionID,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TeacherID != out[j].TeacherID {
			return out[i].TeacherID < out[j].TeacherID
		}
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].SlotNumber < out[j].SlotNumber
	})
	return out
}

func set(m map[string]map[int]map[int]string, teacherID string, day, slot int, sectionID string) {
	if m[teacherID] == nil {
		m[teacherID] = make(map[int]map[int]string)
	}
	if m[teacherID][day] == nil {
		m[teacherID][day] = make(map[int]string)
	}
	m[teacherID][day][slot] = sectionID
}

func has(m map[string]map[int]map[int]string, teacherID string, day, slot int) bool {
	if days, ok := m[teacherID]; ok {
		if slots, ok := days[day]; ok {
			_, ok := slots[slot]
			return ok
		}
	}
	return false
}
