package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/edukita/timetable-api/internal/dto"
	"github.com/edukita/timetable-api/internal/models"
	"github.com/edukita/timetable-api/internal/timetable"
	appErrors "github.com/edukita/timetable-api/pkg/errors"
)

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type templateReader interface {
	FindByID(ctx context.Context, id string) (*models.PeriodTemplate, error)
}

type teacherDirectory interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	ListQualifications(ctx context.Context) ([]models.TeacherQualification, error)
}

type curriculumReader interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.CurriculumLoad, error)
}

type slotStore interface {
	ListBySection(ctx context.Context, sectionID, sessionID string) ([]models.SlotAssignment, error)
	ListLocked(ctx context.Context, sectionID, sessionID string) ([]models.SlotAssignment, error)
	ListCommitments(ctx context.Context, sessionID, targetSectionID string) ([]models.TeacherCommitment, error)
	DeleteUnlocked(ctx context.Context, exec sqlx.ExtContext, sectionID, sessionID string) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.SlotAssignment) error
	FindTeacherConflicts(ctx context.Context, exec sqlx.ExtContext, sessionID, targetSectionID string, proposed []models.TeacherCommitment) ([]models.TeacherCommitment, error)
	FindByID(ctx context.Context, id string) (*models.SlotAssignment, error)
	SetLocked(ctx context.Context, id string, locked bool) error
}

type runStore interface {
	Insert(ctx context.Context, exec sqlx.ExtContext, run *models.GenerationRun) error
	ListBySection(ctx context.Context, sectionID, sessionID string) ([]models.GenerationRun, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, key string)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Postgres SQLSTATE for serialization failures under serializable isolation.
const serializationFailureCode = "40001"

// TimetableConfig governs generation behaviour.
type TimetableConfig struct {
	BacktrackBudget int
	LockTTL         time.Duration
	ViewCacheTTL    time.Duration
}

// TimetableService orchestrates timetable generation for sections: pre-flight
// validation, the solver run against a calendar snapshot, and the atomic
// commit that merges the result into the shared teacher calendar.
type TimetableService struct {
	sessions  sessionReader
	sections  sectionReader
	templates templateReader
	teachers  teacherDirectory
	loads     curriculumReader
	slots     slotStore
	runs      runStore
	cache     timetableCache
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewTimetableService wires generator dependencies.
func NewTimetableService(
	sessions sessionReader,
	sections sectionReader,
	templates templateReader,
	teachers teacherDirectory,
	loads curriculumReader,
	slots slotStore,
	runs runStore,
	cache timetableCache,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BacktrackBudget <= 0 {
		cfg.BacktrackBudget = timetable.DefaultBacktrackBudget
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.ViewCacheTTL <= 0 {
		cfg.ViewCacheTTL = 10 * time.Minute
	}
	return &TimetableService{
		sessions:  sessions,
		sections:  sections,
		templates: templates,
		teachers:  teachers,
		loads:     loads,
		slots:     slots,
		runs:      runs,
		cache:     cache,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		inFlight:  make(map[string]bool),
	}
}

// Generate runs the full pipeline for one section. Generation for the same
// (section, session) pair is serialized; concurrent runs for different
// sections share the calendar optimistically and the commit re-validates.
func (s *TimetableService) Generate(ctx context.Context, sectionID string, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	start := time.Now()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.SessionID != req.SessionID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section does not belong to the requested session")
	}

	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	tpl, err := s.templates.FindByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period template")
	}

	release, err := s.acquire(ctx, sectionID, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := s.generateLocked(ctx, section, session, tpl, req)
	s.observe(err, time.Since(start), resp)
	return resp, err
}

func (s *TimetableService) generateLocked(ctx context.Context, section *models.Section, session *models.Session, tpl *models.PeriodTemplate, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	rules, err := tpl.Rules()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTemplate, "generation rules are malformed")
	}

	grid, err := timetable.ResolveTemplate(tpl, session.WorkingDays())
	if err != nil {
		return nil, err
	}

	loads, err := s.loads.ListBySection(ctx, section.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	quals, err := s.teachers.ListQualifications(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher qualifications")
	}

	demands, err := timetable.BuildDemand(loads, quals, teachers)
	if err != nil {
		return nil, err
	}

	pinned, err := s.slots.ListLocked(ctx, section.ID, req.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pinned cells")
	}
	remaining := timetable.ApplyPinned(demands, pinned)

	commitments, err := s.slots.ListCommitments(ctx, req.SessionID, section.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot teacher calendar")
	}
	calendar := timetable.NewCalendar(commitments)

	if err := timetable.CheckFeasibility(grid, remaining, pinned, calendar); err != nil {
		return nil, err
	}

	solver := &timetable.Solver{
		SectionID:   section.ID,
		SessionID:   req.SessionID,
		Grid:        grid,
		Calendar:    calendar,
		Constraints: &timetable.ConstraintSet{Rules: rules, Grid: grid, Calendar: calendar},
		Demands:     remaining,
		Pinned:      pinned,
		Budget:      s.cfg.BacktrackBudget,
		Logger:      s.logger,
	}
	result := solver.Solve()

	runID, err := s.commit(ctx, section.ID, req, result)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, viewCacheKey(section.ID, req.SessionID)); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("section_id", section.ID), zap.Error(err))
	}

	assignments := make([]models.SlotAssignment, 0, len(pinned)+len(result.Assignments))
	assignments = append(assignments, pinned...)
	assignments = append(assignments, result.Assignments...)
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].DayOfWeek != assignments[j].DayOfWeek {
			return assignments[i].DayOfWeek < assignments[j].DayOfWeek
		}
		return assignments[i].SlotNumber < assignments[j].SlotNumber
	})

	return &dto.GenerateTimetableResponse{
		RunID:       runID,
		Assignments: assignments,
		Warnings:    result.Warnings,
		Stats: dto.SolveStats{
			Expansions:    result.Stats.Expansions,
			Backtracks:    result.Stats.Backtracks,
			UnfilledCells: result.Stats.UnfilledCells,
			ElapsedMillis: result.Stats.Elapsed.Milliseconds(),
			Score:         result.Stats.Score,
		},
	}, nil
}

// commit applies the solver output as one atomic batch. Before writing it
// re-validates the no-double-booking invariant against the live calendar so
// a concurrent run for another section that committed after our snapshot is
// caught here and surfaced as a retryable StaleCalendar error. The conflict
// query locks existing rows but cannot lock rows a racing commit has yet to
// insert, so the transaction runs serializable: the losing transaction fails
// with a serialization error, folded into the same StaleCalendar outcome.
func (s *TimetableService) commit(ctx context.Context, sectionID string, req dto.GenerateTimetableRequest, result *timetable.Result) (string, error) {
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin commit transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	proposed := make([]models.TeacherCommitment, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		proposed = append(proposed, models.TeacherCommitment{
			TeacherID:  a.TeacherID,
			DayOfWeek:  a.DayOfWeek,
			SlotNumber: a.SlotNumber,
			SectionID:  sectionID,
		})
	}

	conflicts, err := s.slots.FindTeacherConflicts(ctx, tx, req.SessionID, sectionID, proposed)
	if err != nil {
		err = commitWriteError(err, "failed to re-validate teacher calendar")
		return "", err
	}
	if len(conflicts) > 0 {
		c := conflicts[0]
		err = appErrors.Clone(appErrors.ErrStaleCalendar,
			fmt.Sprintf("teacher %s was booked at day %d slot %d by section %s after this run started", c.TeacherID, c.DayOfWeek, c.SlotNumber, c.SectionID))
		return "", err
	}

	if err = s.slots.DeleteUnlocked(ctx, tx, sectionID, req.SessionID); err != nil {
		err = commitWriteError(err, "failed to clear previous assignments")
		return "", err
	}
	if err = s.slots.InsertBatch(ctx, tx, result.Assignments); err != nil {
		err = commitWriteError(err, "failed to persist slot assignments")
		return "", err
	}

	statsPayload, marshalErr := json.Marshal(map[string]any{
		"expansions":    result.Stats.Expansions,
		"backtracks":    result.Stats.Backtracks,
		"unfilledCells": result.Stats.UnfilledCells,
		"elapsedMillis": result.Stats.Elapsed.Milliseconds(),
		"algorithm":     "mcv_backtracking_v1",
	})
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run stats")
		return "", err
	}
	run := &models.GenerationRun{
		SectionID:    sectionID,
		SessionID:    req.SessionID,
		TemplateID:   req.TemplateID,
		Score:        result.Stats.Score,
		WarningCount: len(result.Warnings),
		Stats:        types.JSONText(statsPayload),
	}
	if err = s.runs.Insert(ctx, tx, run); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation run")
		return "", err
	}

	if err = tx.Commit(); err != nil {
		err = commitWriteError(err, "failed to commit generation")
		return "", err
	}
	return run.ID, nil
}

// commitWriteError folds a serialization failure from a racing commit into
// the retryable StaleCalendar outcome; anything else stays internal.
func commitWriteError(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == serializationFailureCode {
		return appErrors.Clone(appErrors.ErrStaleCalendar, "a concurrent commit touched the same teacher calendar, retry")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// GetTimetable returns a section's current assignments, read through the
// view cache when available.
func (s *TimetableService) GetTimetable(ctx context.Context, sectionID, sessionID string) ([]models.SlotAssignment, error) {
	if sectionID == "" || sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sectionId and sessionId are required")
	}

	key := viewCacheKey(sectionID, sessionID)
	var cached []models.SlotAssignment
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	assignments, err := s.slots.ListBySection(ctx, sectionID, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slot assignments")
	}
	if err := s.cache.Set(ctx, key, assignments, s.cfg.ViewCacheTTL); err != nil {
		s.logger.Warn("failed to cache timetable view", zap.String("section_id", sectionID), zap.Error(err))
	}
	return assignments, nil
}

// SetSlotLock toggles the publish lock on a cell. Locked cells become pinned
// input for the next generation run.
func (s *TimetableService) SetSlotLock(ctx context.Context, slotID string, locked bool) (*models.SlotAssignment, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot assignment")
	}
	if slot.IsLocked == locked {
		return slot, nil
	}
	if err := s.slots.SetLocked(ctx, slotID, locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot lock")
	}
	slot.IsLocked = locked

	if err := s.cache.Delete(ctx, viewCacheKey(slot.SectionID, slot.SessionID)); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("section_id", slot.SectionID), zap.Error(err))
	}
	return slot, nil
}

// ListRuns returns a section's generation history.
func (s *TimetableService) ListRuns(ctx context.Context, sectionID, sessionID string) ([]models.GenerationRun, error) {
	if sectionID == "" || sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sectionId and sessionId are required")
	}
	runs, err := s.runs.ListBySection(ctx, sectionID, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generation runs")
	}
	return runs, nil
}

// acquire serializes generation per (section, session): in-process first,
// then a best-effort cross-instance lease in Redis.
func (s *TimetableService) acquire(ctx context.Context, sectionID, sessionID string) (func(), error) {
	key := sectionID + ":" + sessionID

	s.mu.Lock()
	if s.inFlight[key] {
		s.mu.Unlock()
		return nil, appErrors.ErrGenerationInProgress
	}
	s.inFlight[key] = true
	s.mu.Unlock()

	localRelease := func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}

	leaseKey := leaseCacheKey(sectionID, sessionID)
	ok, err := s.cache.AcquireLease(ctx, leaseKey, s.cfg.LockTTL)
	if err != nil {
		s.logger.Warn("generation lease unavailable, relying on local guard", zap.Error(err))
		return localRelease, nil
	}
	if !ok {
		localRelease()
		return nil, appErrors.ErrGenerationInProgress
	}
	return func() {
		s.cache.ReleaseLease(ctx, leaseKey)
		localRelease()
	}, nil
}

func (s *TimetableService) observe(err error, elapsed time.Duration, resp *dto.GenerateTimetableResponse) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	var stats *dto.SolveStats
	var warnings []models.Warning
	if resp != nil {
		stats = &resp.Stats
		warnings = resp.Warnings
	}
	s.metrics.ObserveGeneration(outcome, elapsed, stats, warnings)
}

func viewCacheKey(sectionID, sessionID string) string {
	return fmt.Sprintf("timetable:view:%s:%s", sectionID, sessionID)
}

func leaseCacheKey(sectionID, sessionID string) string {
	return fmt.Sprintf("timetable:gen:%s:%s", sessionID, sectionID)
}
