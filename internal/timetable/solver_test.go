package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukita/timetable-api/internal/models"
)

func newTestSolver(t *testing.T, days []int, slots int, rules models.GenerationRules, demands []SubjectDemand, pinned []models.SlotAssignment, snapshot []models.TeacherCommitment) *Solver {
	t.Helper()
	grid, err := ResolveTemplate(testTemplate(slots, nil, 0), days)
	require.NoError(t, err)
	cal := NewCalendar(snapshot)
	return &Solver{
		SectionID:   "sec-1",
		SessionID:   "sess-1",
		Grid:        grid,
		Calendar:    cal,
		Constraints: &ConstraintSet{Rules: rules, Grid: grid, Calendar: cal},
		Demands:     demands,
		Pinned:      pinned,
	}
}

func warningKinds(warnings []models.Warning) map[models.WarningKind]int {
	kinds := make(map[models.WarningKind]int)
	for _, w := range warnings {
		kinds[w.Kind]++
	}
	return kinds
}

func TestSolverFillsAllDemand(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "eng", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-2"}},
		{SubjectID: "math", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-1"}},
	}
	solver := newTestSolver(t, []int{1, 2}, 2, models.GenerationRules{}, demands, nil, nil)

	result := solver.Solve()
	require.Len(t, result.Assignments, 4)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 0, result.Stats.UnfilledCells)
	assert.Equal(t, 100.0, result.Stats.Score)

	for _, a := range result.Assignments {
		assert.Equal(t, "sec-1", a.SectionID)
		assert.Equal(t, "sess-1", a.SessionID)
		assert.NotEmpty(t, a.StartTime)
		assert.NotEmpty(t, a.EndTime)
	}
}

func TestSolverSpreadsSubjectAcrossDays(t *testing.T) {
	rules := models.GenerationRules{
		MaxPeriodsPerSubjectPerDay: 1,
		BalanceSubjectDistribution: true,
	}
	demands := []SubjectDemand{
		{SubjectID: "eng", RequiredWeeklyPeriods: 5, QualifiedTeacherIDs: []string{"t-2"}},
		{SubjectID: "math", RequiredWeeklyPeriods: 5, QualifiedTeacherIDs: []string{"t-1"}},
	}
	solver := newTestSolver(t, []int{1, 2, 3, 4, 5}, 2, rules, demands, nil, nil)

	result := solver.Solve()
	require.Len(t, result.Assignments, 10)
	assert.Empty(t, result.Warnings)

	mathPerDay := make(map[int]int)
	for _, a := range result.Assignments {
		if a.SubjectID == "math" {
			mathPerDay[a.DayOfWeek]++
		}
	}
	for day := 1; day <= 5; day++ {
		assert.Equal(t, 1, mathPerDay[day], "math should appear exactly once on day %d", day)
	}
}

func TestSolverHonoursTeacherCalendar(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "math", RequiredWeeklyPeriods: 1, QualifiedTeacherIDs: []string{"t-1"}},
	}
	snapshot := []models.TeacherCommitment{
		{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 1, SectionID: "sec-other"},
	}
	solver := newTestSolver(t, []int{1}, 2, models.GenerationRules{}, demands, nil, snapshot)

	result := solver.Solve()
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, 2, result.Assignments[0].SlotNumber, "occupied slot must be avoided")
	assert.Empty(t, result.Warnings)
}

func TestSolverPreservesPinnedCells(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "math", RequiredWeeklyPeriods: 1, QualifiedTeacherIDs: []string{"t-1"}},
	}
	pinned := []models.SlotAssignment{
		{SectionID: "sec-1", SessionID: "sess-1", DayOfWeek: 1, SlotNumber: 1, SubjectID: "math", TeacherID: "t-1", IsLocked: true},
	}
	snapshot := []models.TeacherCommitment{
		{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 1, SectionID: "sec-1"},
	}
	solver := newTestSolver(t, []int{1}, 3, models.GenerationRules{}, demands, pinned, snapshot)

	result := solver.Solve()
	require.Len(t, result.Assignments, 1, "pinned cells are never regenerated")
	got := result.Assignments[0]
	assert.NotEqual(t, 1, got.SlotNumber)
	assert.NotEqual(t, 2, got.SlotNumber, "adjacent slot would form a double period")
	assert.Equal(t, 3, got.SlotNumber)
}

func TestSolverAvoidsDoublePeriodsWhenDisallowed(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "math", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-1"}},
	}
	solver := newTestSolver(t, []int{1}, 3, models.GenerationRules{AllowDoublePeriods: false}, demands, nil, nil)

	result := solver.Solve()
	require.Len(t, result.Assignments, 2)
	slots := []int{result.Assignments[0].SlotNumber, result.Assignments[1].SlotNumber}
	assert.NotEqual(t, 1, slots[1]-slots[0], "same-subject periods must not touch")
}

func TestSolverIsDeterministic(t *testing.T) {
	rules := models.GenerationRules{
		MaxPeriodsPerSubjectPerDay: 1,
		BalanceSubjectDistribution: true,
	}
	demands := []SubjectDemand{
		{SubjectID: "eng", RequiredWeeklyPeriods: 5, QualifiedTeacherIDs: []string{"t-2"}},
		{SubjectID: "math", RequiredWeeklyPeriods: 5, QualifiedTeacherIDs: []string{"t-1"}},
	}

	first := newTestSolver(t, []int{1, 2, 3, 4, 5}, 2, rules, demands, nil, nil).Solve()
	second := newTestSolver(t, []int{1, 2, 3, 4, 5}, 2, rules, demands, nil, nil).Solve()

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Warnings, second.Warnings)
}

func TestSolverReportsShortfallWhenNoCandidateExists(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "math", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-1"}},
	}
	snapshot := []models.TeacherCommitment{
		{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 1, SectionID: "sec-other"},
		{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 2, SectionID: "sec-other"},
	}
	solver := newTestSolver(t, []int{1}, 2, models.GenerationRules{}, demands, nil, snapshot)

	result := solver.Solve()
	assert.Empty(t, result.Assignments)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, models.WarningUnfilledSlot, result.Warnings[0].Kind)
	assert.Equal(t, "math", result.Warnings[0].SubjectID)
	assert.Equal(t, 80.0, result.Stats.Score)
}

func TestSolverKeepsPartialScheduleWhenFullDemandCannotFit(t *testing.T) {
	// Three contiguous slots cannot host three periods of one subject
	// without a double period. Two of them can: those placements must
	// survive, with only the genuinely dead cell reported.
	demands := []SubjectDemand{
		{SubjectID: "math", RequiredWeeklyPeriods: 3, QualifiedTeacherIDs: []string{"t-1"}},
	}
	solver := newTestSolver(t, []int{1}, 3, models.GenerationRules{AllowDoublePeriods: false}, demands, nil, nil)

	result := solver.Solve()
	require.Len(t, result.Assignments, 2, "placeable demand survives when full demand cannot fit")
	slots := []int{result.Assignments[0].SlotNumber, result.Assignments[1].SlotNumber}
	assert.Equal(t, []int{1, 3}, slots)

	kinds := warningKinds(result.Warnings)
	assert.Equal(t, 2, kinds[models.WarningUnfilledSlot], "one cell-scoped and one subject-scoped shortfall")
	assert.Equal(t, 1, result.Stats.UnfilledCells)
	assert.Equal(t, 80.0, result.Stats.Score)
}

func TestSolverRelaxesSoftRulesUnderPressure(t *testing.T) {
	rules := models.GenerationRules{
		MaxPeriodsPerTeacherPerDay:   2,
		MaxConsecutivePeriodsTeacher: 2,
		AllowDoublePeriods:           true,
	}
	demands := []SubjectDemand{
		{SubjectID: "math", RequiredWeeklyPeriods: 3, QualifiedTeacherIDs: []string{"t-1"}},
	}
	solver := newTestSolver(t, []int{1}, 3, rules, demands, nil, nil)

	result := solver.Solve()
	require.Len(t, result.Assignments, 3, "soft rules degrade, they never block placement")

	kinds := warningKinds(result.Warnings)
	assert.Equal(t, 1, kinds[models.WarningDailyLoadExceeded])
	assert.Equal(t, 1, kinds[models.WarningConsecutiveHoursExceeded])
}

func TestSolverStopsAtBudgetAndCompletesGreedily(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "eng", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-2"}},
		{SubjectID: "math", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-1"}},
	}
	solver := newTestSolver(t, []int{1, 2}, 2, models.GenerationRules{}, demands, nil, nil)
	solver.Budget = 1

	result := solver.Solve()
	require.Len(t, result.Assignments, 4, "greedy completion still fills the grid")
	kinds := warningKinds(result.Warnings)
	assert.Equal(t, 1, kinds[models.WarningSearchBudgetExhausted])
	assert.GreaterOrEqual(t, result.Stats.Expansions, 1)
}
