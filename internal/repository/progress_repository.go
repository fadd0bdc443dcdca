package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

// ProgressRepository persists materialized ledger records and the append-only
// manual override log.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Upsert stores the recomputed ledger state for one (student, topic) pair.
func (r *ProgressRepository) Upsert(ctx context.Context, record *models.ProgressRecord) error {
	if record.LastUpdated.IsZero() {
		record.LastUpdated = time.Now().UTC()
	}
	const query = `INSERT INTO progress_records (student_id, topic_id, status, completion_source, last_updated)
VALUES (:student_id, :topic_id, :status, :completion_source, :last_updated)
ON CONFLICT (student_id, topic_id) DO UPDATE
SET status = EXCLUDED.status,
    completion_source = EXCLUDED.completion_source,
    last_updated = EXCLUDED.last_updated`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert progress record: %w", err)
	}
	return nil
}

// Get returns the ledger record for one (student, topic) pair.
func (r *ProgressRepository) Get(ctx context.Context, studentID, topicID string) (*models.ProgressRecord, error) {
	const query = `SELECT student_id, topic_id, status, completion_source, last_updated
FROM progress_records WHERE student_id = $1 AND topic_id = $2`
	var record models.ProgressRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, topicID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStudent returns all ledger records for a student.
func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ProgressRecord, error) {
	const query = `SELECT student_id, topic_id, status, completion_source, last_updated
FROM progress_records WHERE student_id = $1`
	records := make([]models.ProgressRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list progress records: %w", err)
	}
	return records, nil
}

// AppendOverride records a manual ledger action.
func (r *ProgressRepository) AppendOverride(ctx context.Context, override *models.ProgressOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	if override.CreatedAt.IsZero() {
		override.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO progress_overrides (id, student_id, topic_id, action, created_at)
VALUES (:id, :student_id, :topic_id, :action, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, override); err != nil {
		return fmt.Errorf("append progress override: %w", err)
	}
	return nil
}

// ListOverrides returns all manual actions for a student, oldest first.
func (r *ProgressRepository) ListOverrides(ctx context.Context, studentID string) ([]models.ProgressOverride, error) {
	const query = `SELECT id, student_id, topic_id, action, created_at
FROM progress_overrides WHERE student_id = $1 ORDER BY created_at ASC`
	overrides := make([]models.ProgressOverride, 0)
	if err := r.db.SelectContext(ctx, &overrides, query, studentID); err != nil {
		return nil, fmt.Errorf("list progress overrides: %w", err)
	}
	return overrides, nil
}
