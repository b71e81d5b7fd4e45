package timetable

import (
	"github.com/edukita/timetable-api/internal/models"
)

// candidate is a (subject, teacher) pair considered for a cell.
type candidate struct {
	SubjectID string
	TeacherID string
}

// Soft-constraint weights. Relative order encodes the relaxation policy:
// the subject daily cap gives way last, clustering first.
const (
	costSubjectDailyCap  = 4.0
	costTeacherDailyLoad = 3.0
	costConsecutiveRun   = 2.0
	costClustering       = 1.0
	costAdjacentDay      = 0.25
	doublePeriodBonus    = 0.5
)

// ConstraintSet bundles the rule checks derived from a template's generation
// rules against the resolved grid and the teacher calendar.
type ConstraintSet struct {
	Rules    models.GenerationRules
	Grid     *Grid
	Calendar *Calendar
}

// hardOK applies the rules that must never be violated for a tentative
// placement: the teacher is free at (day, slot) including this run's own
// tentative assignments, and, when double periods are disallowed, the
// subject does not already sit in a chronologically adjacent teachable slot.
func (cs *ConstraintSet) hardOK(board *sectionBoard, cand candidate, day, slot int) bool {
	if !cs.Calendar.IsFree(cand.TeacherID, day, slot) {
		return false
	}
	if !cs.Rules.AllowDoublePeriods && cs.sameSubjectAdjacent(board, cand.SubjectID, day, slot) {
		return false
	}
	return true
}

// softCost scores a placement against the relaxable rules. Lower is better.
// remaining and daysRemaining feed the double-period pairing heuristic: when
// a subject still needs more periods than there are days left to spread them
// over, pairing adjacent slots is rewarded rather than penalised.
func (cs *ConstraintSet) softCost(board *sectionBoard, cand candidate, day, slot, remaining, daysRemaining int) float64 {
	cost := 0.0

	if max := cs.Rules.MaxConsecutivePeriodsTeacher; max > 0 {
		if run := cs.Calendar.ConsecutiveRun(cand.TeacherID, day, slot); run >= max {
			cost += costConsecutiveRun * float64(run-max+1)
		}
	}
	if max := cs.Rules.MaxPeriodsPerSubjectPerDay; max > 0 {
		if board.countOnDay(cand.SubjectID, day) >= max {
			cost += costSubjectDailyCap
		}
	}
	if max := cs.Rules.MaxPeriodsPerTeacherPerDay; max > 0 {
		if cs.Calendar.DailyLoad(cand.TeacherID, day) >= max {
			cost += costTeacherDailyLoad
		}
	}

	adjacent := cs.sameSubjectAdjacent(board, cand.SubjectID, day, slot)
	if cs.Rules.AllowDoublePeriods && adjacent && daysRemaining > 0 && remaining > daysRemaining {
		cost -= doublePeriodBonus
	}

	if cs.Rules.BalanceSubjectDistribution {
		cost += costClustering * float64(board.countOnDay(cand.SubjectID, day))
		for _, d := range board.daysWith(cand.SubjectID) {
			if d == day-1 || d == day+1 {
				cost += costAdjacentDay
			}
		}
	}

	return cost
}

func (cs *ConstraintSet) sameSubjectAdjacent(board *sectionBoard, subjectID string, day, slot int) bool {
	for _, n := range [2]int{slot - 1, slot + 1} {
		if !cs.Grid.IsTeachable(day, n) {
			continue
		}
		if s, ok := board.subjectAt(day, n); ok && s == subjectID {
			return true
		}
	}
	return false
}

// sectionBoard tracks the target section's own cell contents during a run,
// seeded from pinned cells so that adjacency and daily-cap checks see them.
type sectionBoard struct {
	cells      map[cellKey]candidate
	subjectDay map[string]map[int]int
}

func newSectionBoard(pinned []models.SlotAssignment) *sectionBoard {
	b := &sectionBoard{
		cells:      make(map[cellKey]candidate),
		subjectDay: make(map[string]map[int]int),
	}
	for _, p := range pinned {
		b.place(p.DayOfWeek, p.SlotNumber, candidate{SubjectID: p.SubjectID, TeacherID: p.TeacherID})
	}
	return b
}

func (b *sectionBoard) place(day, slot int, cand candidate) {
	b.cells[cellKey{Day: day, Slot: slot}] = cand
	if b.subjectDay[cand.SubjectID] == nil {
		b.subjectDay[cand.SubjectID] = make(map[int]int)
	}
	b.subjectDay[cand.SubjectID][day]++
}

func (b *sectionBoard) remove(day, slot int) {
	key := cellKey{Day: day, Slot: slot}
	cand, ok := b.cells[key]
	if !ok {
		return
	}
	delete(b.cells, key)
	if days := b.subjectDay[cand.SubjectID]; days != nil {
		if days[day] > 1 {
			days[day]--
		} else {
			delete(days, day)
		}
	}
}

func (b *sectionBoard) subjectAt(day, slot int) (string, bool) {
	cand, ok := b.cells[cellKey{Day: day, Slot: slot}]
	return cand.SubjectID, ok
}

func (b *sectionBoard) occupied(day, slot int) bool {
	_, ok := b.cells[cellKey{Day: day, Slot: slot}]
	return ok
}

func (b *sectionBoard) countOnDay(subjectID string, day int) int {
	return b.subjectDay[subjectID][day]
}

func (b *sectionBoard) daysWith(subjectID string) []int {
	days := make([]int, 0, len(b.subjectDay[subjectID]))
	for d := range b.subjectDay[subjectID] {
		days = append(days, d)
	}
	return days
}
