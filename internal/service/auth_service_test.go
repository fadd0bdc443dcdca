package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/learn-coach-api/internal/models"
	"github.com/noah-isme/learn-coach-api/pkg/config"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
)

type stubStudentRepo struct {
	student   *models.Student
	lastLogin time.Time
}

func (s *stubStudentRepo) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if s.student == nil || s.student.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.student, nil
}

func (s *stubStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.student == nil || s.student.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.student, nil
}

func (s *stubStudentRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin = ts
	return nil
}

func authTestConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test_secret", Expiration: time.Hour, Issuer: "learn-coach-api"}
}

func testStudent(t *testing.T) *models.Student {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse1"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Student{
		ID: "stu-1", Email: "ada@example.com", FullName: "Ada Lovelace",
		PasswordHash: string(hash), Active: true,
	}
}

func TestAuthLoginSuccess(t *testing.T) {
	repo := &stubStudentRepo{student: testStudent(t)}
	svc := NewAuthService(repo, nil, nil, authTestConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "ada@example.com", Password: "correct-horse1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "stu-1", resp.Student.ID)
	require.False(t, repo.lastLogin.IsZero())

	claims, err := svc.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "stu-1", claims.StudentID)
	require.Equal(t, "ada@example.com", claims.Email)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := &stubStudentRepo{student: testStudent(t)}
	svc := NewAuthService(repo, nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "ada@example.com", Password: "wrong-password",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&stubStudentRepo{}, nil, nil, authTestConfig())
	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "nobody@example.com", Password: "whatever123",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	student := testStudent(t)
	student.Active = false
	svc := NewAuthService(&stubStudentRepo{student: student}, nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "ada@example.com", Password: "correct-horse1",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthParseTokenRejectsTampered(t *testing.T) {
	svc := NewAuthService(&stubStudentRepo{student: testStudent(t)}, nil, nil, authTestConfig())
	_, err := svc.ParseToken("not-a-token")
	require.Error(t, err)
}
