package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// GenerationRules encode the configurable constraints applied during a
// generation run. They are immutable for the duration of one run.
type GenerationRules struct {
	MaxConsecutivePeriodsTeacher int  `json:"max_consecutive_periods_teacher"`
	MaxPeriodsPerSubjectPerDay   int  `json:"max_periods_per_subject_per_day"`
	MaxPeriodsPerTeacherPerDay   int  `json:"max_periods_per_teacher_per_day"`
	AllowDoublePeriods           bool `json:"allow_double_periods"`
	BalanceSubjectDistribution   bool `json:"balance_subject_distribution"`
}

// PeriodTemplate describes the daily period structure a session applies to
// timetable generation: slot count, duration, and break/lunch placement.
type PeriodTemplate struct {
	ID                  string         `db:"id" json:"id"`
	Name                string         `db:"name" json:"name"`
	TotalSlotsPerDay    int            `db:"total_slots_per_day" json:"total_slots_per_day"`
	StartTime           string         `db:"start_time" json:"start_time"`
	SlotDurationMinutes int            `db:"slot_duration_minutes" json:"slot_duration_minutes"`
	BreakSlots          pq.Int64Array  `db:"break_slots" json:"break_slots"`
	LunchSlot           int            `db:"lunch_slot" json:"lunch_slot"`
	GenerationRules     types.JSONText `db:"generation_rules" json:"generation_rules"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// Rules decodes the stored generation rules.
func (t *PeriodTemplate) Rules() (GenerationRules, error) {
	var rules GenerationRules
	if len(t.GenerationRules) == 0 {
		return rules, nil
	}
	if err := json.Unmarshal(t.GenerationRules, &rules); err != nil {
		return rules, fmt.Errorf("decode generation rules: %w", err)
	}
	return rules, nil
}

// BreakSlotSet returns the break slot numbers as a lookup set.
func (t *PeriodTemplate) BreakSlotSet() map[int]bool {
	set := make(map[int]bool, len(t.BreakSlots))
	for _, s := range t.BreakSlots {
		set[int(s)] = true
	}
	return set
}
