package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukita/timetable-api/internal/models"
	appErrors "github.com/edukita/timetable-api/pkg/errors"
)

func TestBuildDemandFiltersInactiveTeachers(t *testing.T) {
	loads := []models.CurriculumLoad{
		{SectionID: "sec-1", SubjectID: "math", WeeklyPeriods: 5},
		{SectionID: "sec-1", SubjectID: "art", WeeklyPeriods: 0},
	}
	quals := []models.TeacherQualification{
		{TeacherID: "t-2", SubjectID: "math"},
		{TeacherID: "t-1", SubjectID: "math"},
		{TeacherID: "t-1", SubjectID: "math"},
		{TeacherID: "t-3", SubjectID: "math"},
	}
	teachers := []models.Teacher{
		{ID: "t-1", IsActive: true},
		{ID: "t-2", IsActive: true},
		{ID: "t-3", IsActive: false},
	}

	demands, err := BuildDemand(loads, quals, teachers)
	require.NoError(t, err)
	require.Len(t, demands, 1, "zero-period subjects are dropped")
	assert.Equal(t, "math", demands[0].SubjectID)
	assert.Equal(t, 5, demands[0].RequiredWeeklyPeriods)
	assert.Equal(t, []string{"t-1", "t-2"}, demands[0].QualifiedTeacherIDs, "inactive teachers excluded, duplicates collapsed, sorted")
}

func TestBuildDemandFailsWithoutQualifiedTeacher(t *testing.T) {
	loads := []models.CurriculumLoad{{SectionID: "sec-1", SubjectID: "physics", WeeklyPeriods: 3}}

	_, err := BuildDemand(loads, nil, []models.Teacher{{ID: "t-1", IsActive: true}})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoQualifiedTeacher))
}

func TestApplyPinnedCreditsDemand(t *testing.T) {
	demands := []SubjectDemand{
		{SubjectID: "eng", RequiredWeeklyPeriods: 4, QualifiedTeacherIDs: []string{"t-2"}},
		{SubjectID: "math", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-1"}},
	}
	pinned := []models.SlotAssignment{
		{SubjectID: "math", DayOfWeek: 1, SlotNumber: 1, IsLocked: true},
		{SubjectID: "math", DayOfWeek: 2, SlotNumber: 1, IsLocked: true},
		{SubjectID: "eng", DayOfWeek: 3, SlotNumber: 1, IsLocked: true},
		{SubjectID: "music", DayOfWeek: 4, SlotNumber: 1, IsLocked: true},
	}

	remaining := ApplyPinned(demands, pinned)
	require.Len(t, remaining, 1, "fully covered subjects drop out")
	assert.Equal(t, "eng", remaining[0].SubjectID)
	assert.Equal(t, 3, remaining[0].RequiredWeeklyPeriods)
}

func TestCheckFeasibilityRejectsExcessDemand(t *testing.T) {
	grid, err := ResolveTemplate(testTemplate(2, nil, 0), []int{1})
	require.NoError(t, err)
	demands := []SubjectDemand{{SubjectID: "math", RequiredWeeklyPeriods: 3, QualifiedTeacherIDs: []string{"t-1"}}}

	err = CheckFeasibility(grid, demands, nil, NewCalendar(nil))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInfeasible))
}

func TestCheckFeasibilityCountsPinnedCellsAsUsed(t *testing.T) {
	grid, err := ResolveTemplate(testTemplate(2, nil, 0), []int{1})
	require.NoError(t, err)
	demands := []SubjectDemand{{SubjectID: "math", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-1"}}}
	pinned := []models.SlotAssignment{{SubjectID: "eng", TeacherID: "t-2", DayOfWeek: 1, SlotNumber: 1, IsLocked: true}}

	err = CheckFeasibility(grid, demands, pinned, NewCalendar(nil))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInfeasible))
}

func TestCheckFeasibilityRejectsUnreachableSubject(t *testing.T) {
	grid, err := ResolveTemplate(testTemplate(2, nil, 0), []int{1})
	require.NoError(t, err)
	demands := []SubjectDemand{{SubjectID: "math", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-1"}}}
	cal := NewCalendar([]models.TeacherCommitment{
		{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 1, SectionID: "other"},
	})

	err = CheckFeasibility(grid, demands, nil, cal)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInfeasible))
}

func TestCheckFeasibilityAcceptsTightFit(t *testing.T) {
	grid, err := ResolveTemplate(testTemplate(2, nil, 0), []int{1, 2})
	require.NoError(t, err)
	demands := []SubjectDemand{
		{SubjectID: "eng", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-2"}},
		{SubjectID: "math", RequiredWeeklyPeriods: 2, QualifiedTeacherIDs: []string{"t-1"}},
	}

	assert.NoError(t, CheckFeasibility(grid, demands, nil, NewCalendar(nil)))
}
