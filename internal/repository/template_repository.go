package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edukita/timetable-api/internal/models"
)

// TemplateRepository reads period templates from the configuration store.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindByID loads a template by its identifier.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.PeriodTemplate, error) {
	const query = `SELECT id, name, total_slots_per_day, start_time, slot_duration_minutes, break_slots, lunch_slot, generation_rules, created_at, updated_at
FROM period_templates WHERE id = $1`
	var tpl models.PeriodTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// List returns all templates ordered by name.
func (r *TemplateRepository) List(ctx context.Context) ([]models.PeriodTemplate, error) {
	const query = `SELECT id, name, total_slots_per_day, start_time, slot_duration_minutes, break_slots, lunch_slot, generation_rules, created_at, updated_at
FROM period_templates ORDER BY name ASC`
	var templates []models.PeriodTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list period templates: %w", err)
	}
	return templates, nil
}
