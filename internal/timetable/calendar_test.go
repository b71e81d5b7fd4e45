package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edukita/timetable-api/internal/models"
)

func TestCalendarSnapshotAndTentativeOverlay(t *testing.T) {
	cal := NewCalendar([]models.TeacherCommitment{
		{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 2, SectionID: "sec-other"},
	})

	assert.False(t, cal.IsFree("t-1", 1, 2))
	assert.True(t, cal.IsFree("t-1", 1, 3))
	assert.True(t, cal.IsFree("t-2", 1, 2))

	cal.Commit("t-1", 1, 3, "sec-1")
	assert.False(t, cal.IsFree("t-1", 1, 3))
	assert.True(t, cal.SnapshotFree("t-1", 1, 3), "tentative placements are invisible to the snapshot view")

	cal.Release("t-1", 1, 3)
	assert.True(t, cal.IsFree("t-1", 1, 3))
	assert.False(t, cal.IsFree("t-1", 1, 2), "release never touches the snapshot")
}

func TestCalendarDailyLoadSumsBothLayers(t *testing.T) {
	cal := NewCalendar([]models.TeacherCommitment{
		{TeacherID: "t-1", DayOfWeek: 2, SlotNumber: 1, SectionID: "sec-other"},
		{TeacherID: "t-1", DayOfWeek: 2, SlotNumber: 4, SectionID: "sec-other"},
	})
	cal.Commit("t-1", 2, 2, "sec-1")

	assert.Equal(t, 3, cal.DailyLoad("t-1", 2))
	assert.Equal(t, 0, cal.DailyLoad("t-1", 3))
}

func TestCalendarConsecutiveRun(t *testing.T) {
	cal := NewCalendar([]models.TeacherCommitment{
		{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 2, SectionID: "sec-other"},
	})
	cal.Commit("t-1", 1, 3, "sec-1")
	cal.Commit("t-1", 1, 4, "sec-1")

	assert.Equal(t, 0, cal.ConsecutiveRun("t-1", 1, 2), "nothing precedes slot 2")
	assert.Equal(t, 3, cal.ConsecutiveRun("t-1", 1, 5), "slots 2-4 form the preceding block")
	assert.Equal(t, 0, cal.ConsecutiveRun("t-1", 1, 1))
	assert.Equal(t, 0, cal.ConsecutiveRun("t-2", 1, 5))
}

func TestCalendarTentativeIsSorted(t *testing.T) {
	cal := NewCalendar(nil)
	cal.Commit("t-2", 1, 1, "sec-1")
	cal.Commit("t-1", 2, 2, "sec-1")
	cal.Commit("t-1", 1, 3, "sec-1")

	got := cal.Tentative()
	assert.Equal(t, []models.TeacherCommitment{
		{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 3, SectionID: "sec-1"},
		{TeacherID: "t-1", DayOfWeek: 2, SlotNumber: 2, SectionID: "sec-1"},
		{TeacherID: "t-2", DayOfWeek: 1, SlotNumber: 1, SectionID: "sec-1"},
	}, got)
}
