package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edukita/timetable-api/internal/models"
)

// SlotAssignmentRepository persists timetable cells. The teacher calendar is
// the projection of this table onto (teacher_id, day_of_week, slot_number)
// across every section of a session.
type SlotAssignmentRepository struct {
	db *sqlx.DB
}

// NewSlotAssignmentRepository constructs the repository.
func NewSlotAssignmentRepository(db *sqlx.DB) *SlotAssignmentRepository {
	return &SlotAssignmentRepository{db: db}
}

func (r *SlotAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListBySection returns a section's timetable ordered by day/slot.
func (r *SlotAssignmentRepository) ListBySection(ctx context.Context, sectionID, sessionID string) ([]models.SlotAssignment, error) {
	const query = `SELECT id, section_id, session_id, day_of_week, slot_number, subject_id, teacher_id, start_time, end_time, is_locked, created_at, updated_at
FROM slot_assignments WHERE section_id = $1 AND session_id = $2 ORDER BY day_of_week ASC, slot_number ASC`
	var slots []models.SlotAssignment
	if err := r.db.SelectContext(ctx, &slots, query, sectionID, sessionID); err != nil {
		return nil, fmt.Errorf("list slot assignments: %w", err)
	}
	return slots, nil
}

// ListLocked returns the section's pinned cells.
func (r *SlotAssignmentRepository) ListLocked(ctx context.Context, sectionID, sessionID string) ([]models.SlotAssignment, error) {
	const query = `SELECT id, section_id, session_id, day_of_week, slot_number, subject_id, teacher_id, start_time, end_time, is_locked, created_at, updated_at
FROM slot_assignments WHERE section_id = $1 AND session_id = $2 AND is_locked = TRUE ORDER BY day_of_week ASC, slot_number ASC`
	var slots []models.SlotAssignment
	if err := r.db.SelectContext(ctx, &slots, query, sectionID, sessionID); err != nil {
		return nil, fmt.Errorf("list locked slot assignments: %w", err)
	}
	return slots, nil
}

// ListCommitments snapshots the teacher calendar for a generation run: every
// booked (teacher, day, slot) in the session except the target section's
// unlocked cells, which the run is about to replace. The target section's
// locked cells stay in the snapshot since they remain booked.
func (r *SlotAssignmentRepository) ListCommitments(ctx context.Context, sessionID, targetSectionID string) ([]models.TeacherCommitment, error) {
	const query = `SELECT teacher_id, day_of_week, slot_number, section_id
FROM slot_assignments
WHERE session_id = $1 AND (section_id <> $2 OR is_locked = TRUE)
ORDER BY teacher_id ASC, day_of_week ASC, slot_number ASC`
	var commitments []models.TeacherCommitment
	if err := r.db.SelectContext(ctx, &commitments, query, sessionID, targetSectionID); err != nil {
		return nil, fmt.Errorf("snapshot teacher calendar: %w", err)
	}
	return commitments, nil
}

// DeleteUnlocked removes the section's replaceable cells inside a commit
// transaction. Locked cells are never touched.
func (r *SlotAssignmentRepository) DeleteUnlocked(ctx context.Context, exec sqlx.ExtContext, sectionID, sessionID string) error {
	const query = `DELETE FROM slot_assignments WHERE section_id = $1 AND session_id = $2 AND is_locked = FALSE`
	if _, err := r.exec(exec).ExecContext(ctx, query, sectionID, sessionID); err != nil {
		return fmt.Errorf("delete unlocked slot assignments: %w", err)
	}
	return nil
}

// InsertBatch writes newly generated cells.
func (r *SlotAssignmentRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SlotAssignment) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO slot_assignments (id, section_id, session_id, day_of_week, slot_number, subject_id, teacher_id, start_time, end_time, is_locked, created_at, updated_at)
VALUES (:id, :section_id, :session_id, :day_of_week, :slot_number, :subject_id, :teacher_id, :start_time, :end_time, :is_locked, :created_at, :updated_at)`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		slot.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("insert slot assignment: %w", err)
		}
	}
	return nil
}

// FindTeacherConflicts re-validates the no-double-booking invariant against
// the live calendar inside the commit transaction. Rows booked by other
// sections that collide with any of the proposed tuples are returned and
// locked. The lock cannot cover rows a racing commit has not inserted yet;
// the serializable commit transaction closes that window, and the unique
// constraint on (session_id, teacher_id, day_of_week, slot_number) backstops
// it at the storage layer.
func (r *SlotAssignmentRepository) FindTeacherConflicts(ctx context.Context, exec sqlx.ExtContext, sessionID, targetSectionID string, proposed []models.TeacherCommitment) ([]models.TeacherCommitment, error) {
	if len(proposed) == 0 {
		return nil, nil
	}
	teacherIDs := make([]string, len(proposed))
	days := make([]int64, len(proposed))
	slots := make([]int64, len(proposed))
	for i, p := range proposed {
		teacherIDs[i] = p.TeacherID
		days[i] = int64(p.DayOfWeek)
		slots[i] = int64(p.SlotNumber)
	}

	const query = `
SELECT sa.teacher_id, sa.day_of_week, sa.slot_number, sa.section_id
FROM slot_assignments sa
JOIN (SELECT unnest($3::text[]) AS teacher_id, unnest($4::int[]) AS day_of_week, unnest($5::int[]) AS slot_number) p
  ON p.teacher_id = sa.teacher_id AND p.day_of_week = sa.day_of_week AND p.slot_number = sa.slot_number
WHERE sa.session_id = $1 AND sa.section_id <> $2
FOR UPDATE OF sa`

	var conflicts []models.TeacherCommitment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &conflicts, query, sessionID, targetSectionID, pq.Array(teacherIDs), pq.Array(days), pq.Array(slots)); err != nil {
		return nil, fmt.Errorf("check teacher conflicts: %w", err)
	}
	return conflicts, nil
}

// FindByID loads a single cell.
func (r *SlotAssignmentRepository) FindByID(ctx context.Context, id string) (*models.SlotAssignment, error) {
	const query = `SELECT id, section_id, session_id, day_of_week, slot_number, subject_id, teacher_id, start_time, end_time, is_locked, created_at, updated_at
FROM slot_assignments WHERE id = $1`
	var slot models.SlotAssignment
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// SetLocked toggles the publish lock on a cell.
func (r *SlotAssignmentRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	const query = `UPDATE slot_assignments SET is_locked = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, locked, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set slot lock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("slot lock rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
