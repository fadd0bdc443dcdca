package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

// ScheduleRepository persists schedule preferences and optimizer snapshots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetPreferences returns stored preferences for a student.
func (r *ScheduleRepository) GetPreferences(ctx context.Context, studentID string) (*models.SchedulePreferences, error) {
	const query = `SELECT student_id, available_days, time_slots, weekly_hours, created_at, updated_at
FROM schedule_preferences WHERE student_id = $1`
	var prefs models.SchedulePreferences
	if err := r.db.GetContext(ctx, &prefs, query, studentID); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpsertPreferences creates or updates a student's preferences.
func (r *ScheduleRepository) UpsertPreferences(ctx context.Context, prefs *models.SchedulePreferences) error {
	now := time.Now().UTC()
	if prefs.CreatedAt.IsZero() {
		prefs.CreatedAt = now
	}
	prefs.UpdatedAt = now
	const query = `INSERT INTO schedule_preferences (student_id, available_days, time_slots, weekly_hours, created_at, updated_at)
VALUES (:student_id, :available_days, :time_slots, :weekly_hours, :created_at, :updated_at)
ON CONFLICT (student_id) DO UPDATE
SET available_days = EXCLUDED.available_days,
    time_slots = EXCLUDED.time_slots,
    weekly_hours = EXCLUDED.weekly_hours,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, prefs); err != nil {
		return fmt.Errorf("upsert schedule preferences: %w", err)
	}
	return nil
}

// ReplaceSnapshot atomically swaps the student's schedule: the new snapshot
// and its blocks are written and all older snapshots removed in one
// transaction, so readers never see a partial block set.
func (r *ScheduleRepository) ReplaceSnapshot(ctx context.Context, snapshot *models.ScheduleSnapshot, blocks []models.ScheduleBlock) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin schedule replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	var version int
	const versionQuery = `SELECT COALESCE(MAX(version), 0) FROM schedule_snapshots WHERE student_id = $1`
	if err = tx.GetContext(ctx, &version, versionQuery, snapshot.StudentID); err != nil {
		return fmt.Errorf("read schedule version: %w", err)
	}
	snapshot.Version = version + 1

	const insertSnapshot = `INSERT INTO schedule_snapshots (id, student_id, version, reason, created_at)
VALUES (:id, :student_id, :version, :reason, :created_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertSnapshot, snapshot); err != nil {
		return fmt.Errorf("insert schedule snapshot: %w", err)
	}

	if len(blocks) > 0 {
		now := time.Now().UTC()
		for i := range blocks {
			if blocks[i].ID == "" {
				blocks[i].ID = uuid.NewString()
			}
			blocks[i].SnapshotID = snapshot.ID
			if blocks[i].CreatedAt.IsZero() {
				blocks[i].CreatedAt = now
			}
		}
		const insertBlocks = `INSERT INTO schedule_blocks (id, snapshot_id, day, slot, topic_id, planned_minutes, position, created_at)
VALUES (:id, :snapshot_id, :day, :slot, :topic_id, :planned_minutes, :position, :created_at)`
		if _, err = sqlx.NamedExecContext(ctx, tx, insertBlocks, blocks); err != nil {
			return fmt.Errorf("insert schedule blocks: %w", err)
		}
	}

	const pruneBlocks = `DELETE FROM schedule_blocks WHERE snapshot_id IN (
SELECT id FROM schedule_snapshots WHERE student_id = $1 AND id <> $2)`
	if _, err = tx.ExecContext(ctx, pruneBlocks, snapshot.StudentID, snapshot.ID); err != nil {
		return fmt.Errorf("prune schedule blocks: %w", err)
	}
	const pruneSnapshots = `DELETE FROM schedule_snapshots WHERE student_id = $1 AND id <> $2`
	if _, err = tx.ExecContext(ctx, pruneSnapshots, snapshot.StudentID, snapshot.ID); err != nil {
		return fmt.Errorf("prune schedule snapshots: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule replace: %w", err)
	}
	return nil
}

// GetLatestSnapshot returns the current snapshot for a student.
func (r *ScheduleRepository) GetLatestSnapshot(ctx context.Context, studentID string) (*models.ScheduleSnapshot, error) {
	const query = `SELECT id, student_id, version, reason, created_at
FROM schedule_snapshots WHERE student_id = $1 ORDER BY version DESC LIMIT 1`
	var snapshot models.ScheduleSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, studentID); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListBlocks returns a snapshot's blocks in stable position order.
func (r *ScheduleRepository) ListBlocks(ctx context.Context, snapshotID string) ([]models.ScheduleBlock, error) {
	const query = `SELECT id, snapshot_id, day, slot, topic_id, planned_minutes, position, created_at
FROM schedule_blocks WHERE snapshot_id = $1 ORDER BY position ASC`
	blocks := make([]models.ScheduleBlock, 0)
	if err := r.db.SelectContext(ctx, &blocks, query, snapshotID); err != nil {
		return nil, fmt.Errorf("list schedule blocks: %w", err)
	}
	return blocks, nil
}
