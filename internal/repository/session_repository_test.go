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

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSessionRepositoryAppendGeneratesDefaults(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO study_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session := &models.StudySession{
		StudentID:       "stu-1",
		RawTopicText:    "goroutines and channels",
		DurationMinutes: 45,
		Mood:            4,
		Productivity:    3,
	}
	err := repo.Append(context.Background(), session)
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	require.False(t, session.OccurredAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateAnalysisConflictIsSilent(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	// ON CONFLICT DO NOTHING reports zero affected rows on a duplicate.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_analyses")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	analysis := &models.SessionAnalysis{
		SessionID:          "ses-1",
		StudentID:          "stu-1",
		EffectivenessScore: 72,
		Source:             models.AnalysisSourceFallback,
	}
	err := repo.CreateAnalysis(context.Background(), analysis)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListAnalysesOldestFirst(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	topicID := "top-1"
	rows := sqlmock.NewRows([]string{"session_id", "student_id", "effectiveness_score", "matched_topic_id", "source", "ai_raw_output", "created_at"}).
		AddRow("ses-1", "stu-1", 80, &topicID, models.AnalysisSourceAI, []byte("null"), time.Now().Add(-time.Hour)).
		AddRow("ses-2", "stu-1", 55, nil, models.AnalysisSourceFallback, []byte("null"), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM session_analyses WHERE student_id = $1 ORDER BY created_at ASC")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	analyses, err := repo.ListAnalysesByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	require.NotNil(t, analyses[0].MatchedTopicID)
	require.Nil(t, analyses[1].MatchedTopicID)
	require.NoError(t, mock.ExpectationsWereMet())
}
