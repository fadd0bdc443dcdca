package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/models"
	"github.com/noah-isme/learn-coach-api/internal/repository"
)

func newPathServiceMock(t *testing.T) (*repository.TopicRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return repository.NewTopicRepository(sqlxDB), mock, func() { db.Close() }
}

func TestPathServiceFallbackTopicsWhenAIFails(t *testing.T) {
	repo, mock, cleanup := newPathServiceMock(t)
	defer cleanup()

	client := &stubAIClient{enabled: true, err: errors.New("timeout")}
	svc := NewPathService(repo, client, nil, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO learning_paths")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topics")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	resp, err := svc.Generate(context.Background(), "stu-1", dto.CreatePathRequest{Goal: "Go Concurrency"})
	require.NoError(t, err)
	require.Equal(t, models.PathSourceFallback, resp.Path.Source)
	require.Len(t, resp.Topics, 3)
	require.Equal(t, "Introduction to Go Concurrency", resp.Topics[0].Name)
	require.Equal(t, "Go Concurrency Fundamentals", resp.Topics[1].Name)
	require.Equal(t, "Practical Go Concurrency", resp.Topics[2].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPathServiceUsesAIProposal(t *testing.T) {
	repo, mock, cleanup := newPathServiceMock(t)
	defer cleanup()

	proposal := map[string]interface{}{
		"topics": []map[string]interface{}{
			{"name": "Goroutines", "description": "d", "estimated_hours": 4},
			{"name": "Channels", "description": "d", "estimated_hours": 5},
			{"name": "Select and Context", "description": "d", "estimated_hours": 3},
		},
		"current_stage": "foundations",
	}
	raw, err := json.Marshal(proposal)
	require.NoError(t, err)

	client := &stubAIClient{enabled: true, raw: raw}
	svc := NewPathService(repo, client, nil, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO learning_paths")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topics")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	resp, err := svc.Generate(context.Background(), "stu-1", dto.CreatePathRequest{Goal: "Go Concurrency"})
	require.NoError(t, err)
	require.Equal(t, models.PathSourceAI, resp.Path.Source)
	require.Len(t, resp.Topics, 3)
	require.Equal(t, "Goroutines", resp.Topics[0].Name)
	require.Equal(t, 1, resp.Topics[0].OrderIndex)
	require.Equal(t, 3, resp.Topics[2].OrderIndex)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPathServiceRejectsMalformedProposal(t *testing.T) {
	repo, mock, cleanup := newPathServiceMock(t)
	defer cleanup()

	// Estimated hours out of range invalidates the whole proposal.
	client := &stubAIClient{enabled: true, raw: json.RawMessage(`{"topics":[{"name":"X","estimated_hours":-1}]}`)}
	svc := NewPathService(repo, client, nil, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO learning_paths")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO topics")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	resp, err := svc.Generate(context.Background(), "stu-1", dto.CreatePathRequest{Goal: "Statistics"})
	require.NoError(t, err)
	require.Equal(t, models.PathSourceFallback, resp.Path.Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPathServiceValidatesRequest(t *testing.T) {
	repo, _, cleanup := newPathServiceMock(t)
	defer cleanup()
	svc := NewPathService(repo, nil, nil, nil)

	_, err := svc.Generate(context.Background(), "stu-1", dto.CreatePathRequest{Goal: ""})
	require.Error(t, err)
}
