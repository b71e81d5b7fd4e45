package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/edukita/timetable-api/internal/models"
)

// GenerationRunRepository stores audit metadata of committed generation runs.
type GenerationRunRepository struct {
	db *sqlx.DB
}

// NewGenerationRunRepository constructs the repository.
func NewGenerationRunRepository(db *sqlx.DB) *GenerationRunRepository {
	return &GenerationRunRepository{db: db}
}

func (r *GenerationRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Insert writes the run record, usually inside the commit transaction.
func (r *GenerationRunRepository) Insert(ctx context.Context, exec sqlx.ExtContext, run *models.GenerationRun) error {
	if run == nil {
		return fmt.Errorf("generation run payload is nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if len(run.Stats) == 0 {
		run.Stats = types.JSONText(`{}`)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO generation_runs (id, section_id, session_id, template_id, score, warning_count, stats, created_at)
VALUES (:id, :section_id, :session_id, :template_id, :score, :warning_count, :stats, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, run); err != nil {
		return fmt.Errorf("insert generation run: %w", err)
	}
	return nil
}

// ListBySection returns a section's run history, newest first.
func (r *GenerationRunRepository) ListBySection(ctx context.Context, sectionID, sessionID string) ([]models.GenerationRun, error) {
	const query = `SELECT id, section_id, session_id, template_id, score, warning_count, stats, created_at
FROM generation_runs WHERE section_id = $1 AND session_id = $2 ORDER BY created_at DESC`
	var runs []models.GenerationRun
	if err := r.db.SelectContext(ctx, &runs, query, sectionID, sessionID); err != nil {
		return nil, fmt.Errorf("list generation runs: %w", err)
	}
	return runs, nil
}
