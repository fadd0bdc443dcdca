package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

func newProgressRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProgressRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO progress_records")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.ProgressRecord{
		StudentID:        "stu-1",
		TopicID:          "top-1",
		Status:           models.StatusInProgress,
		CompletionSource: models.SourceSession,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "topic_id", "status", "completion_source", "last_updated"}).
		AddRow("stu-1", "top-1", models.StatusCompleted, models.SourceAssessment, time.Now()).
		AddRow("stu-1", "top-2", models.StatusNotStarted, "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM progress_records WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	records, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, models.StatusCompleted, records[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryAppendOverrideGeneratesID(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO progress_overrides")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	override := &models.ProgressOverride{
		StudentID: "stu-1",
		TopicID:   "top-1",
		Action:    models.OverrideReset,
	}
	err := repo.AppendOverride(context.Background(), override)
	require.NoError(t, err)
	require.NotEmpty(t, override.ID)
	require.False(t, override.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryListOverridesOrdered(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "topic_id", "action", "created_at"}).
		AddRow("ovr-1", "stu-1", "top-1", models.OverrideComplete, time.Now().Add(-time.Hour)).
		AddRow("ovr-2", "stu-1", "top-1", models.OverrideReset, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM progress_overrides WHERE student_id = $1 ORDER BY created_at ASC")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	overrides, err := repo.ListOverrides(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	require.Equal(t, models.OverrideReset, overrides[1].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
