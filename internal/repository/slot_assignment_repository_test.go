package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukita/timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func slotRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "section_id", "session_id", "day_of_week", "slot_number", "subject_id", "teacher_id", "start_time", "end_time", "is_locked", "created_at", "updated_at"}).
		AddRow("slot-1", "sec-1", "sess-1", 1, 1, "math", "t-1", "07:30", "08:15", false, now, now)
}

func TestSlotAssignmentRepositoryListBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSlotAssignmentRepository(db)

	mock.ExpectQuery(`FROM slot_assignments WHERE section_id = \$1 AND session_id = \$2 ORDER BY day_of_week ASC, slot_number ASC`).
		WithArgs("sec-1", "sess-1").
		WillReturnRows(slotRows())

	slots, err := repo.ListBySection(context.Background(), "sec-1", "sess-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "math", slots[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotAssignmentRepositoryListCommitmentsExcludesReplaceableRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSlotAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "day_of_week", "slot_number", "section_id"}).
		AddRow("t-1", 1, 2, "sec-other").
		AddRow("t-2", 3, 1, "sec-1")
	mock.ExpectQuery(`WHERE session_id = \$1 AND \(section_id <> \$2 OR is_locked = TRUE\)`).
		WithArgs("sess-1", "sec-1").
		WillReturnRows(rows)

	commitments, err := repo.ListCommitments(context.Background(), "sess-1", "sec-1")
	require.NoError(t, err)
	require.Len(t, commitments, 2)
	assert.Equal(t, "sec-other", commitments[0].SectionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotAssignmentRepositoryCommitCycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSlotAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM slot_assignments WHERE section_id = \$1 AND session_id = \$2 AND is_locked = FALSE`).
		WithArgs("sec-1", "sess-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO slot_assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUnlocked(context.Background(), tx, "sec-1", "sess-1"))

	slots := []models.SlotAssignment{
		{SectionID: "sec-1", SessionID: "sess-1", DayOfWeek: 1, SlotNumber: 1, SubjectID: "math", TeacherID: "t-1", StartTime: "07:30", EndTime: "08:15"},
	}
	require.NoError(t, repo.InsertBatch(context.Background(), tx, slots))
	assert.NotEmpty(t, slots[0].ID, "batch insert assigns identifiers")
	assert.False(t, slots[0].UpdatedAt.IsZero())

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotAssignmentRepositoryFindTeacherConflicts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSlotAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "day_of_week", "slot_number", "section_id"}).
		AddRow("t-1", 1, 1, "sec-other")
	mock.ExpectQuery(`FOR UPDATE OF sa`).
		WithArgs("sess-1", "sec-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	proposed := []models.TeacherCommitment{{TeacherID: "t-1", DayOfWeek: 1, SlotNumber: 1, SectionID: "sec-1"}}
	conflicts, err := repo.FindTeacherConflicts(context.Background(), nil, "sess-1", "sec-1", proposed)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "sec-other", conflicts[0].SectionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotAssignmentRepositoryFindTeacherConflictsSkipsEmptyProposal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSlotAssignmentRepository(db)

	conflicts, err := repo.FindTeacherConflicts(context.Background(), nil, "sess-1", "sec-1", nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotAssignmentRepositorySetLockedMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSlotAssignmentRepository(db)

	mock.ExpectExec(`UPDATE slot_assignments SET is_locked = \$1`).
		WithArgs(true, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetLocked(context.Background(), "missing", true)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
