package dto

import "github.com/edukita/timetable-api/internal/models"

// GenerateTimetableRequest triggers a generation run for one section.
type GenerateTimetableRequest struct {
	SessionID  string `json:"sessionId" validate:"required"`
	TemplateID string `json:"templateId" validate:"required"`
}

// SolveStats summarises the search effort of a run.
type SolveStats struct {
	Expansions    int     `json:"expansions"`
	Backtracks    int     `json:"backtracks"`
	UnfilledCells int     `json:"unfilledCells"`
	ElapsedMillis int64   `json:"elapsedMillis"`
	Score         float64 `json:"score"`
}

// GenerateTimetableResponse returns the committed assignments and any
// soft-degradation warnings of a successful run.
type GenerateTimetableResponse struct {
	RunID       string                  `json:"runId"`
	Assignments []models.SlotAssignment `json:"assignments"`
	Warnings    []models.Warning        `json:"warnings"`
	Stats       SolveStats              `json:"stats"`
}

// LockSlotRequest toggles the publish lock on one slot assignment.
type LockSlotRequest struct {
	Locked bool `json:"locked"`
}

// TimetableQuery filters the timetable view by session.
type TimetableQuery struct {
	SessionID string `form:"sessionId" json:"sessionId"`
}
