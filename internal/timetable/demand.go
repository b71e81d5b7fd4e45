package timetable

import (
	"fmt"
	"sort"

	"github.com/edukita/timetable-api/internal/models"
	appErrors "github.com/edukita/timetable-api/pkg/errors"
)

// SubjectDemand is the weekly requirement of one subject for the target
// section together with the teachers allowed to cover it.
type SubjectDemand struct {
	SubjectID             string
	RequiredWeeklyPeriods int
	QualifiedTeacherIDs   []string
}

// BuildDemand derives the section's subject demands from its curriculum loads
// and the teacher qualification map. Subjects with zero required periods are
// dropped. A subject with required periods but no active qualified teacher is
// a pre-flight configuration error, not a solver failure.
func BuildDemand(loads []models.CurriculumLoad, quals []models.TeacherQualification, teachers []models.Teacher) ([]SubjectDemand, error) {
	active := make(map[string]bool, len(teachers))
	for _, t := range teachers {
		if t.IsActive {
			active[t.ID] = true
		}
	}

	bySubject := make(map[string][]string)
	for _, q := range quals {
		if !active[q.TeacherID] {
			continue
		}
		bySubject[q.SubjectID] = append(bySubject[q.SubjectID], q.TeacherID)
	}

	demands := make([]SubjectDemand, 0, len(loads))
	for _, load := range loads {
		if load.WeeklyPeriods <= 0 {
			continue
		}
		qualified := dedupeSorted(bySubject[load.SubjectID])
		if len(qualified) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNoQualifiedTeacher,
				fmt.Sprintf("subject %s requires %d weekly periods but has no active qualified teacher", load.SubjectID, load.WeeklyPeriods))
		}
		demands = append(demands, SubjectDemand{
			SubjectID:             load.SubjectID,
			RequiredWeeklyPeriods: load.WeeklyPeriods,
			QualifiedTeacherIDs:   qualified,
		})
	}

	sort.Slice(demands, func(i, j int) bool { return demands[i].SubjectID < demands[j].SubjectID })
	return demands, nil
}

// ApplyPinned credits demand already satisfied by locked cells and returns the
// remaining demands. Pinned cells for subjects outside the curriculum are
// left alone; they simply occupy their cells.
func ApplyPinned(demands []SubjectDemand, pinned []models.SlotAssignment) []SubjectDemand {
	credit := make(map[string]int, len(pinned))
	for _, p := range pinned {
		credit[p.SubjectID]++
	}
	remaining := make([]SubjectDemand, 0, len(demands))
	for _, d := range demands {
		d.RequiredWeeklyPeriods -= credit[d.SubjectID]
		if d.RequiredWeeklyPeriods > 0 {
			remaining = append(remaining, d)
		}
	}
	return remaining
}

// CheckFeasibility fails fast when the demand set can never fit the grid:
// either total demand exceeds the free teachable capacity, or some subject has
// fewer reachable cells (a qualified teacher free per the calendar snapshot)
// than it needs. Both cases surface as Infeasible with the offending cause.
func CheckFeasibility(grid *Grid, demands []SubjectDemand, pinned []models.SlotAssignment, cal *Calendar) error {
	pinnedCells := make(map[cellKey]bool, len(pinned))
	for _, p := range pinned {
		pinnedCells[cellKey{Day: p.DayOfWeek, Slot: p.SlotNumber}] = true
	}

	capacity := 0
	free := make([]Cell, 0)
	for _, c := range grid.TeachableCells() {
		if pinnedCells[cellKey{Day: c.Day, Slot: c.Slot}] {
			continue
		}
		capacity++
		free = append(free, c)
	}

	total := 0
	for _, d := range demands {
		total += d.RequiredWeeklyPeriods
	}
	if total > capacity {
		return appErrors.Clone(appErrors.ErrInfeasible,
			fmt.Sprintf("total weekly demand %d exceeds free teachable capacity %d", total, capacity))
	}

	for _, d := range demands {
		reachable := 0
		for _, c := range free {
			for _, teacherID := range d.QualifiedTeacherIDs {
				if cal.SnapshotFree(teacherID, c.Day, c.Slot) {
					reachable++
					break
				}
			}
		}
		if reachable < d.RequiredWeeklyPeriods {
			return appErrors.Clone(appErrors.ErrInfeasible,
				fmt.Sprintf("subject %s needs %d periods but only %d cells have a free qualified teacher", d.SubjectID, d.RequiredWeeklyPeriods, reachable))
		}
	}
	return nil
}

func dedupeSorted(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
