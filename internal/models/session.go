package models

import (
	"time"

	"github.com/lib/pq"
)

// Session models an academic session (school year) the timetable belongs to.
type Session struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	AcademicYear  string        `db:"academic_year" json:"academic_year"`
	StartDate     time.Time     `db:"start_date" json:"start_date"`
	EndDate       time.Time     `db:"end_date" json:"end_date"`
	WeeklyOffDays pq.Int64Array `db:"weekly_off_days" json:"weekly_off_days"`
	IsActive      bool          `db:"is_active" json:"is_active"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// WorkingDays returns the ordered ISO weekdays (1 = Monday) the session
// teaches on, i.e. every weekday not listed in WeeklyOffDays.
func (s *Session) WorkingDays() []int {
	off := make(map[int]bool, len(s.WeeklyOffDays))
	for _, d := range s.WeeklyOffDays {
		off[int(d)] = true
	}
	days := make([]int, 0, 7)
	for d := 1; d <= 7; d++ {
		if !off[d] {
			days = append(days, d)
		}
	}
	return days
}
