package models

import "time"

// Section represents one class-group instance within a session, e.g. "Grade 10 - A".
type Section struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Grade     string    `db:"grade" json:"grade"`
	SessionID string    `db:"session_id" json:"session_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CurriculumLoad stores the required weekly period count of a subject for a section.
type CurriculumLoad struct {
	ID            string    `db:"id" json:"id"`
	SectionID     string    `db:"section_id" json:"section_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	WeeklyPeriods int       `db:"weekly_periods" json:"weekly_periods"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
