package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SlotAssignment is one concrete (day, slot) cell of a section's timetable.
// Once IsLocked is true the row is pinned: regeneration must keep it verbatim.
type SlotAssignment struct {
	ID         string    `db:"id" json:"id"`
	SectionID  string    `db:"section_id" json:"section_id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	SlotNumber int       `db:"slot_number" json:"slot_number"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	IsLocked   bool      `db:"is_locked" json:"is_locked"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherCommitment is one already-booked slot of a teacher anywhere in the
// session. The union of commitments across all sections forms the teacher
// calendar; no two commitments may share (teacher, day, slot).
type TeacherCommitment struct {
	TeacherID  string `db:"teacher_id" json:"teacher_id"`
	DayOfWeek  int    `db:"day_of_week" json:"day_of_week"`
	SlotNumber int    `db:"slot_number" json:"slot_number"`
	SectionID  string `db:"section_id" json:"section_id"`
}

// WarningKind enumerates soft-degradation categories reported by a run.
type WarningKind string

const (
	WarningUnfilledSlot             WarningKind = "unfilled_slot"
	WarningConsecutiveHoursExceeded WarningKind = "consecutive_hours_exceeded"
	WarningDailyLoadExceeded        WarningKind = "daily_load_exceeded"
	WarningSubjectDailyCapExceeded  WarningKind = "subject_daily_cap_exceeded"
	WarningSearchBudgetExhausted    WarningKind = "search_budget_exhausted"
)

// Warning reports a soft-constraint violation or an unfilled cell. Warnings
// never block a commit.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	DayOfWeek int         `json:"day_of_week,omitempty"`
	Slot      int         `json:"slot_number,omitempty"`
	SubjectID string      `json:"subject_id,omitempty"`
	TeacherID string      `json:"teacher_id,omitempty"`
	Message   string      `json:"message"`
}

// GenerationRun records metadata of a committed generation for auditing.
type GenerationRun struct {
	ID           string         `db:"id" json:"id"`
	SectionID    string         `db:"section_id" json:"section_id"`
	SessionID    string         `db:"session_id" json:"session_id"`
	TemplateID   string         `db:"template_id" json:"template_id"`
	Score        float64        `db:"score" json:"score"`
	WarningCount int            `db:"warning_count" json:"warning_count"`
	Stats        types.JSONText `db:"stats" json:"stats"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
