package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukita/timetable-api/internal/models"
)

func TestGenerationRunRepositoryInsertDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGenerationRunRepository(db)

	mock.ExpectExec("INSERT INTO generation_runs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &models.GenerationRun{SectionID: "sec-1", SessionID: "sess-1", TemplateID: "tpl-1", Score: 96}
	require.NoError(t, repo.Insert(context.Background(), nil, run))
	assert.NotEmpty(t, run.ID)
	assert.JSONEq(t, `{}`, string(run.Stats))
	assert.False(t, run.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRunRepositoryListBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGenerationRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "section_id", "session_id", "template_id", "score", "warning_count", "stats", "created_at"}).
		AddRow("run-2", "sec-1", "sess-1", "tpl-1", 92.0, 1, []byte(`{"expansions":40}`), time.Now()).
		AddRow("run-1", "sec-1", "sess-1", "tpl-1", 88.0, 3, []byte(`{"expansions":55}`), time.Now().Add(-time.Hour))
	mock.ExpectQuery(`FROM generation_runs WHERE section_id = \$1 AND session_id = \$2 ORDER BY created_at DESC`).
		WithArgs("sec-1", "sess-1").
		WillReturnRows(rows)

	runs, err := repo.ListBySection(context.Background(), "sec-1", "sess-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID, "newest first")
	assert.NoError(t, mock.ExpectationsWereMet())
}
