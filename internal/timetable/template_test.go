package timetable

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukita/timetable-api/internal/models"
	appErrors "github.com/edukita/timetable-api/pkg/errors"
)

func testTemplate(slots int, breaks []int64, lunch int) *models.PeriodTemplate {
	return &models.PeriodTemplate{
		ID:                  "tpl-1",
		Name:                "Regular",
		TotalSlotsPerDay:    slots,
		StartTime:           "07:30",
		SlotDurationMinutes: 45,
		BreakSlots:          pq.Int64Array(breaks),
		LunchSlot:           lunch,
	}
}

func TestResolveTemplateComputesTimesAndKinds(t *testing.T) {
	grid, err := ResolveTemplate(testTemplate(8, []int64{4}, 6), []int{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, grid.Days)
	assert.Equal(t, 8, grid.SlotsPerDay)
	assert.Equal(t, 6, grid.TeachablePerDay())
	assert.Equal(t, 30, grid.TeachablePerWeek())

	first, ok := grid.Cell(1, 1)
	require.True(t, ok)
	assert.Equal(t, "07:30", first.StartTime)
	assert.Equal(t, "08:15", first.EndTime)
	assert.Equal(t, CellTeachable, first.Kind)

	brk, ok := grid.Cell(3, 4)
	require.True(t, ok)
	assert.Equal(t, CellBreak, brk.Kind)
	assert.False(t, grid.IsTeachable(3, 4))

	lunch, ok := grid.Cell(5, 6)
	require.True(t, ok)
	assert.Equal(t, CellLunch, lunch.Kind)

	last, ok := grid.Cell(2, 8)
	require.True(t, ok)
	assert.Equal(t, "12:45", last.StartTime)
	assert.Equal(t, "13:30", last.EndTime)
}

func TestResolveTemplateWrapsPastMidnight(t *testing.T) {
	tpl := testTemplate(2, nil, 0)
	tpl.StartTime = "23:30"

	grid, err := ResolveTemplate(tpl, []int{1})
	require.NoError(t, err)

	second, ok := grid.Cell(1, 2)
	require.True(t, ok)
	assert.Equal(t, "00:15", second.StartTime)
	assert.Equal(t, "01:00", second.EndTime)
}

func TestResolveTemplateRejectsInvalidConfigurations(t *testing.T) {
	cases := []struct {
		name string
		tpl  *models.PeriodTemplate
		days []int
	}{
		{
			name: "zero slots",
			tpl:  testTemplate(0, nil, 0),
			days: []int{1},
		},
		{
			name: "zero duration",
			tpl: func() *models.PeriodTemplate {
				tpl := testTemplate(4, nil, 0)
				tpl.SlotDurationMinutes = 0
				return tpl
			}(),
			days: []int{1},
		},
		{
			name: "no working days",
			tpl:  testTemplate(4, nil, 0),
			days: nil,
		},
		{
			name: "malformed start time",
			tpl: func() *models.PeriodTemplate {
				tpl := testTemplate(4, nil, 0)
				tpl.StartTime = "late"
				return tpl
			}(),
			days: []int{1},
		},
		{
			name: "break out of range",
			tpl:  testTemplate(4, []int64{5}, 0),
			days: []int{1},
		},
		{
			name: "duplicate break",
			tpl:  testTemplate(4, []int64{2, 2}, 0),
			days: []int{1},
		},
		{
			name: "lunch out of range",
			tpl:  testTemplate(4, nil, 9),
			days: []int{1},
		},
		{
			name: "lunch overlaps break",
			tpl:  testTemplate(4, []int64{3}, 3),
			days: []int{1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveTemplate(tc.tpl, tc.days)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTemplate))
		})
	}
}
