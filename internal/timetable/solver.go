package timetable

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edukita/timetable-api/internal/models"
)

// DefaultBacktrackBudget bounds search effort when no budget is configured.
const DefaultBacktrackBudget = 5000

// CellStatus is the lifecycle of one teachable cell during a run.
type CellStatus string

const (
	CellUnfilled   CellStatus = "UNFILLED"
	CellTentative  CellStatus = "TENTATIVE"
	CellCommitted  CellStatus = "COMMITTED"
	CellUnfillable CellStatus = "UNFILLABLE"
)

// Stats summarises the search effort of one run.
type Stats struct {
	Expansions    int
	Backtracks    int
	UnfilledCells int
	Elapsed       time.Duration
	Score         float64
}

// Result is the solver's candidate output: newly generated assignments for
// non-pinned cells plus the warnings accumulated along the way.
type Result struct {
	Assignments []models.SlotAssignment
	Warnings    []models.Warning
	Stats       Stats
}

// Solver assigns (subject, teacher) pairs to the section's teachable cells
// with most-constrained-variable backtracking. Hard constraints are never
// violated; soft constraints are relaxed under pressure and reported as
// warnings. The search is bounded by a fixed expansion budget so worst-case
// latency stays deterministic.
type Solver struct {
	SectionID   string
	SessionID   string
	Grid        *Grid
	Calendar    *Calendar
	Constraints *ConstraintSet
	Demands     []SubjectDemand
	Pinned      []models.SlotAssignment
	Budget      int
	Logger      *zap.Logger
}

type rankedCandidate struct {
	cand    candidate
	urgency float64
	cost    float64
}

type placement struct {
	key  cellKey
	cand candidate
}

type searchState struct {
	board           *sectionBoard
	status          map[cellKey]CellStatus
	remaining       map[string]int
	qualified       map[string][]string
	totalRemaining  int
	expansions      int
	backtracks      int
	budgetExhausted bool

	// Deepest assignment reached anywhere in the search. Backtracking
	// unwinds the board, so when no complete assignment exists this is
	// what survives as the run's output.
	best          []placement
	bestRemaining int
}

// Solve runs the search to completion or budget exhaustion and returns the
// best assignment found. It never fails due to soft-constraint pressure; an
// unreachable cell or demand unit degrades into a warning instead.
func (s *Solver) Solve() *Result {
	start := time.Now()
	if s.Budget <= 0 {
		s.Budget = DefaultBacktrackBudget
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	st := s.newState()
	s.run(st)

	assignments := make([]models.SlotAssignment, 0, len(st.board.cells))
	for key, status := range st.status {
		if status != CellTentative {
			continue
		}
		st.status[key] = CellCommitted
		cand := st.board.cells[key]
		cell, _ := s.Grid.Cell(key.Day, key.Slot)
		assignments = append(assignments, models.SlotAssignment{
			SectionID:  s.SectionID,
			SessionID:  s.SessionID,
			DayOfWeek:  key.Day,
			SlotNumber: key.Slot,
			SubjectID:  cand.SubjectID,
			TeacherID:  cand.TeacherID,
			StartTime:  cell.StartTime,
			EndTime:    cell.EndTime,
		})
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].DayOfWeek != assignments[j].DayOfWeek {
			return assignments[i].DayOfWeek < assignments[j].DayOfWeek
		}
		return assignments[i].SlotNumber < assignments[j].SlotNumber
	})

	warnings := s.collectWarnings(st)

	unfilled := 0
	for _, status := range st.status {
		if status == CellUnfillable {
			unfilled++
		}
	}
	softViolations := 0
	for _, w := range warnings {
		if w.Kind != models.WarningUnfilledSlot && w.Kind != models.WarningSearchBudgetExhausted {
			softViolations++
		}
	}
	score := math.Max(0, 100-float64(st.totalRemaining+unfilled)*10-float64(softViolations)*2)

	logger.Debug("solver finished",
		zap.String("section_id", s.SectionID),
		zap.Int("expansions", st.expansions),
		zap.Int("backtracks", st.backtracks),
		zap.Int("placed", len(assignments)),
		zap.Int("remaining_demand", st.totalRemaining),
		zap.Bool("budget_exhausted", st.budgetExhausted),
	)

	return &Result{
		Assignments: assignments,
		Warnings:    warnings,
		Stats: Stats{
			Expansions:    st.expansions,
			Backtracks:    st.backtracks,
			UnfilledCells: unfilled,
			Elapsed:       time.Since(start),
			Score:         score,
		},
	}
}

func (s *Solver) newState() *searchState {
	st := &searchState{
		board:     newSectionBoard(s.Pinned),
		status:    make(map[cellKey]CellStatus),
		remaining: make(map[string]int),
		qualified: make(map[string][]string),
	}
	pinned := make(map[cellKey]bool, len(s.Pinned))
	for _, p := range s.Pinned {
		pinned[cellKey{Day: p.DayOfWeek, Slot: p.SlotNumber}] = true
	}
	for _, c := range s.Grid.TeachableCells() {
		key := cellKey{Day: c.Day, Slot: c.Slot}
		if pinned[key] {
			continue
		}
		st.status[key] = CellUnfilled
	}
	for _, d := range s.Demands {
		st.remaining[d.SubjectID] = d.RequiredWeeklyPeriods
		st.qualified[d.SubjectID] = d.QualifiedTeacherIDs
		st.totalRemaining += d.RequiredWeeklyPeriods
	}
	st.bestRemaining = st.totalRemaining
	return st
}

func (s *Solver) run(st *searchState) {
	for st.totalRemaining > 0 && !st.budgetExhausted {
		key, cands, ok := s.mostConstrained(st)
		if !ok {
			break
		}
		if s.fill(st, key, cands) {
			break
		}
		// Every candidate choice for the tightest cell led to a dead end:
		// give up on this cell alone and keep going with the rest.
		st.status[key] = CellUnfillable
	}
	if st.totalRemaining > st.bestRemaining {
		// No complete assignment exists and the failed branches unwound
		// their placements. Replay the deepest partial so satisfiable
		// demand is kept, then top it up greedily.
		s.restoreBest(st)
		if st.totalRemaining > 0 && !st.budgetExhausted {
			s.greedyComplete(st)
		}
		s.markDeadCells(st)
		return
	}
	if st.totalRemaining > 0 && !st.budgetExhausted {
		s.greedyComplete(st)
	}
}

// restoreBest rewinds the board to the deepest assignment seen during the
// search. Cells written off while chasing a complete assignment become
// Unfilled again so the greedy tail can retry them against the kept board.
func (s *Solver) restoreBest(st *searchState) {
	for key, status := range st.status {
		switch status {
		case CellTentative:
			s.unplace(st, key, st.board.cells[key])
		case CellUnfillable:
			st.status[key] = CellUnfilled
		}
	}
	for _, p := range st.best {
		s.place(st, p.key, p.cand)
	}
}

// markDeadCells flags the cells that remain without any hard-viable candidate
// once demand is left over, so the shortfall is reported per cell.
func (s *Solver) markDeadCells(st *searchState) {
	if st.totalRemaining == 0 {
		return
	}
	for key, status := range st.status {
		if status == CellUnfilled && len(s.rankedCandidates(st, key)) == 0 {
			st.status[key] = CellUnfillable
		}
	}
}

// fill tries ranked candidates for one cell, recursing into the next most
// constrained cell after each tentative placement. Returns true when all
// remaining demand has been placed (or the budget ran out and the best-so-far
// state was greedily completed).
func (s *Solver) fill(st *searchState, key cellKey, cands []rankedCandidate) bool {
	for _, rc := range cands {
		st.expansions++
		s.place(st, key, rc.cand)
		if st.expansions >= s.Budget {
			st.budgetExhausted = true
			s.greedyComplete(st)
			return true
		}
		if st.totalRemaining == 0 {
			return true
		}
		next, nextCands, ok := s.mostConstrained(st)
		if ok && s.fill(st, next, nextCands) {
			return true
		}
		s.unplace(st, key, rc.cand)
		st.backtracks++
	}
	return false
}

// greedyComplete places remaining demand one cell at a time without
// backtracking. Used after budget exhaustion and as the best-effort tail when
// full completion proved impossible.
func (s *Solver) greedyComplete(st *searchState) {
	for st.totalRemaining > 0 {
		key, cands, ok := s.mostConstrained(st)
		if !ok {
			return
		}
		st.expansions++
		s.place(st, key, cands[0].cand)
	}
}

// mostConstrained picks the unfilled cell with the fewest hard-viable
// candidates. Ties prefer the cell whose best candidate carries the lowest
// soft cost, then the earliest (day, slot) for determinism.
func (s *Solver) mostConstrained(st *searchState) (cellKey, []rankedCandidate, bool) {
	var (
		bestKey   cellKey
		bestCands []rankedCandidate
		found     bool
	)
	for _, c := range s.Grid.TeachableCells() {
		key := cellKey{Day: c.Day, Slot: c.Slot}
		if st.status[key] != CellUnfilled {
			continue
		}
		cands := s.rankedCandidates(st, key)
		if len(cands) == 0 {
			continue
		}
		if !found ||
			len(cands) < len(bestCands) ||
			(len(cands) == len(bestCands) && cands[0].cost < bestCands[0].cost) {
			bestKey, bestCands, found = key, cands, true
		}
	}
	return bestKey, bestCands, found
}

// rankedCandidates lists hard-viable (subject, teacher) pairs for a cell,
// ordered by demand urgency (descending), soft cost (ascending), then a
// stable lexicographic tiebreak so identical inputs yield identical runs.
func (s *Solver) rankedCandidates(st *searchState, key cellKey) []rankedCandidate {
	daysOpen := s.daysWithFreeCells(st)
	var out []rankedCandidate
	for _, d := range s.Demands {
		remaining := st.remaining[d.SubjectID]
		if remaining <= 0 {
			continue
		}
		for _, teacherID := range st.qualified[d.SubjectID] {
			cand := candidate{SubjectID: d.SubjectID, TeacherID: teacherID}
			if !s.Constraints.hardOK(st.board, cand, key.Day, key.Slot) {
				continue
			}
			urgency := float64(remaining)
			if daysOpen > 0 {
				urgency = float64(remaining) / float64(daysOpen)
			}
			out = append(out, rankedCandidate{
				cand:    cand,
				urgency: urgency,
				cost:    s.Constraints.softCost(st.board, cand, key.Day, key.Slot, remaining, daysOpen),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].urgency != out[j].urgency {
			return out[i].urgency > out[j].urgency
		}
		if out[i].cost != out[j].cost {
			return out[i].cost < out[j].cost
		}
		if out[i].cand.SubjectID != out[j].cand.SubjectID {
			return out[i].cand.SubjectID < out[j].cand.SubjectID
		}
		return out[i].cand.TeacherID < out[j].cand.TeacherID
	})
	return out
}

func (s *Solver) daysWithFreeCells(st *searchState) int {
	days := 0
	for _, day := range s.Grid.Days {
		for slot := 1; slot <= s.Grid.SlotsPerDay; slot++ {
			if st.status[cellKey{Day: day, Slot: slot}] == CellUnfilled {
				days++
				break
			}
		}
	}
	return days
}

func (s *Solver) place(st *searchState, key cellKey, cand candidate) {
	st.board.place(key.Day, key.Slot, cand)
	s.Calendar.Commit(cand.TeacherID, key.Day, key.Slot, s.SectionID)
	st.status[key] = CellTentative
	st.remaining[cand.SubjectID]--
	st.totalRemaining--

	if st.totalRemaining < st.bestRemaining {
		st.bestRemaining = st.totalRemaining
		st.best = st.best[:0]
		for k, status := range st.status {
			if status == CellTentative {
				st.best = append(st.best, placement{key: k, cand: st.board.cells[k]})
			}
		}
	}
}

func (s *Solver) unplace(st *searchState, key cellKey, cand candidate) {
	st.board.remove(key.Day, key.Slot)
	s.Calendar.Release(cand.TeacherID, key.Day, key.Slot)
	st.status[key] = CellUnfilled
	st.remaining[cand.SubjectID]++
	st.totalRemaining++
}

func (s *Solver) collectWarnings(st *searchState) []models.Warning {
	collector := newWarningCollector()

	for key, status := range st.status {
		if status == CellUnfillable {
			collector.add(models.Warning{
				Kind:      models.WarningUnfilledSlot,
				DayOfWeek: key.Day,
				Slot:      key.Slot,
				Message:   fmt.Sprintf("no candidate could fill day %d slot %d", key.Day, key.Slot),
			})
		}
	}
	for _, d := range s.Demands {
		if left := st.remaining[d.SubjectID]; left > 0 {
			collector.add(models.Warning{
				Kind:      models.WarningUnfilledSlot,
				SubjectID: d.SubjectID,
				Message:   fmt.Sprintf("subject %s is short %d of %d weekly periods", d.SubjectID, left, d.RequiredWeeklyPeriods),
			})
		}
	}
	if st.budgetExhausted {
		collector.add(models.Warning{
			Kind:    models.WarningSearchBudgetExhausted,
			Message: fmt.Sprintf("search stopped after %d expansions, committed best assignment found", st.expansions),
		})
	}

	s.collectSoftViolations(st, collector)
	return collector.sorted()
}

// collectSoftViolations inspects the final board and calendar for rules that
// had to be relaxed, reporting each once per (scope, day).
func (s *Solver) collectSoftViolations(st *searchState, collector *warningCollector) {
	rules := s.Constraints.Rules

	teachers := make(map[string]bool)
	for _, cm := range s.Calendar.Tentative() {
		teachers[cm.TeacherID] = true
	}
	teacherIDs := make([]string, 0, len(teachers))
	for id := range teachers {
		teacherIDs = append(teacherIDs, id)
	}
	sort.Strings(teacherIDs)

	for _, teacherID := range teacherIDs {
		for _, day := range s.Grid.Days {
			if rules.MaxPeriodsPerTeacherPerDay > 0 {
				if load := s.Calendar.DailyLoad(teacherID, day); load > rules.MaxPeriodsPerTeacherPerDay {
					collector.add(models.Warning{
						Kind:      models.WarningDailyLoadExceeded,
						DayOfWeek: day,
						TeacherID: teacherID,
						Message:   fmt.Sprintf("teacher %s has %d periods on day %d, cap is %d", teacherID, load, day, rules.MaxPeriodsPerTeacherPerDay),
					})
				}
			}
			if rules.MaxConsecutivePeriodsTeacher > 0 {
				if run := s.longestRun(teacherID, day); run > rules.MaxConsecutivePeriodsTeacher {
					collector.add(models.Warning{
						Kind:      models.WarningConsecutiveHoursExceeded,
						DayOfWeek: day,
						TeacherID: teacherID,
						Message:   fmt.Sprintf("teacher %s teaches %d consecutive periods on day %d, cap is %d", teacherID, run, day, rules.MaxConsecutivePeriodsTeacher),
					})
				}
			}
		}
	}

	if rules.MaxPeriodsPerSubjectPerDay > 0 {
		subjects := make([]string, 0, len(st.board.subjectDay))
		for subjectID := range st.board.subjectDay {
			subjects = append(subjects, subjectID)
		}
		sort.Strings(subjects)
		for _, subjectID := range subjects {
			for _, day := range s.Grid.Days {
				if count := st.board.countOnDay(subjectID, day); count > rules.MaxPeriodsPerSubjectPerDay {
					collector.add(models.Warning{
						Kind:      models.WarningSubjectDailyCapExceeded,
						DayOfWeek: day,
						SubjectID: subjectID,
						Message:   fmt.Sprintf("subject %s appears %d times on day %d, cap is %d", subjectID, count, day, rules.MaxPeriodsPerSubjectPerDay),
					})
				}
			}
		}
	}
}

func (s *Solver) longestRun(teacherID string, day int) int {
	longest := 0
	for slot := 1; slot <= s.Grid.SlotsPerDay; slot++ {
		// run of busy slots ending at slot, inclusive
		if run := s.Calendar.ConsecutiveRun(teacherID, day, slot+1); run > longest {
			longest = run
		}
	}
	return longest
}
