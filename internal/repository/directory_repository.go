package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edukita/timetable-api/internal/models"
)

// SessionRepository reads academic sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID loads a session by its identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, name, academic_year, start_date, end_date, weekly_off_days, is_active, created_at, updated_at
FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// SectionRepository reads class sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// FindByID loads a section by its identifier.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, name, grade, session_id, created_at, updated_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// TeacherRepository reads the teacher directory.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListActive returns every active teacher.
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, email, is_active, created_at, updated_at
FROM teachers WHERE is_active = TRUE ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// ListQualifications returns the full teacher-subject qualification map.
func (r *TeacherRepository) ListQualifications(ctx context.Context) ([]models.TeacherQualification, error) {
	const query = `SELECT id, teacher_id, subject_id, created_at FROM teacher_qualifications ORDER BY subject_id ASC, teacher_id ASC`
	var quals []models.TeacherQualification
	if err := r.db.SelectContext(ctx, &quals, query); err != nil {
		return nil, fmt.Errorf("list teacher qualifications: %w", err)
	}
	return quals, nil
}

// CurriculumRepository reads a section's subject load configuration.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListBySection returns the required weekly periods per subject for a section.
func (r *CurriculumRepository) ListBySection(ctx context.Context, sectionID string) ([]models.CurriculumLoad, error) {
	const query = `SELECT id, section_id, subject_id, weekly_periods, created_at
FROM curriculum_loads WHERE section_id = $1 ORDER BY subject_id ASC`
	var loads []models.CurriculumLoad
	if err := r.db.SelectContext(ctx, &loads, query, sectionID); err != nil {
		return nil, fmt.Errorf("list curriculum loads: %w", err)
	}
	return loads, nil
}

// SubjectRepository reads the subject catalogue.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns every subject.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, code, created_at, updated_at FROM subjects ORDER BY name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
