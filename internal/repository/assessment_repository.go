package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

// AssessmentRepository persists the append-only assessment log.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Append records an assessment. Assessments are never updated or deleted.
func (r *AssessmentRepository) Append(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	if assessment.OccurredAt.IsZero() {
		assessment.OccurredAt = now
	}
	const query = `INSERT INTO assessments (id, student_id, topic_id, type, score_pct, notes, occurred_at, created_at)
VALUES (:id, :student_id, :topic_id, :type, :score_pct, :notes, :occurred_at, :created_at)
ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("append assessment: %w", err)
	}
	return nil
}

// ListByStudent returns all assessments for a student, oldest first.
func (r *AssessmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Assessment, error) {
	const query = `SELECT id, student_id, topic_id, type, score_pct, notes, occurred_at, created_at
FROM assessments WHERE student_id = $1 ORDER BY occurred_at ASC`
	assessments := make([]models.Assessment, 0)
	if err := r.db.SelectContext(ctx, &assessments, query, studentID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}
