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

// TopicRepository persists learning paths and their ordered topics.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository constructs the repository.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// BeginTxx starts a transaction for path replacement.
func (r *TopicRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// CreatePath inserts a learning path row within the provided executor.
func (r *TopicRepository) CreatePath(ctx context.Context, exec sqlx.ExtContext, path *models.LearningPath) error {
	if path.ID == "" {
		path.ID = uuid.NewString()
	}
	if path.CreatedAt.IsZero() {
		path.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO learning_paths (id, student_id, goal, current_stage, source, created_at)
VALUES (:id, :student_id, :goal, :current_stage, :source, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, path); err != nil {
		return fmt.Errorf("create learning path: %w", err)
	}
	return nil
}

// BulkCreateTopics inserts topics for a path, preserving order indexes.
func (r *TopicRepository) BulkCreateTopics(ctx context.Context, exec sqlx.ExtContext, topics []models.Topic) error {
	if len(topics) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range topics {
		if topics[i].ID == "" {
			topics[i].ID = uuid.NewString()
		}
		if topics[i].CreatedAt.IsZero() {
			topics[i].CreatedAt = now
		}
		topics[i].UpdatedAt = now
	}
	const query = `INSERT INTO topics (id, path_id, name, description, order_index, estimated_hours, created_at, updated_at)
VALUES (:id, :path_id, :name, :description, :order_index, :estimated_hours, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, topics); err != nil {
		return fmt.Errorf("bulk create topics: %w", err)
	}
	return nil
}

// GetActivePath returns the most recent learning path for a student.
func (r *TopicRepository) GetActivePath(ctx context.Context, studentID string) (*models.LearningPath, error) {
	const query = `SELECT id, student_id, goal, current_stage, source, created_at
FROM learning_paths WHERE student_id = $1 ORDER BY created_at DESC LIMIT 1`
	var path models.LearningPath
	if err := r.db.GetContext(ctx, &path, query, studentID); err != nil {
		return nil, err
	}
	return &path, nil
}

// ListTopicsByPath returns a path's topics in curriculum order.
func (r *TopicRepository) ListTopicsByPath(ctx context.Context, pathID string) ([]models.Topic, error) {
	const query = `SELECT id, path_id, name, description, order_index, estimated_hours, created_at, updated_at
FROM topics WHERE path_id = $1 ORDER BY order_index ASC`
	topics := make([]models.Topic, 0)
	if err := r.db.SelectContext(ctx, &topics, query, pathID); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// FindTopicByID returns a single topic row.
func (r *TopicRepository) FindTopicByID(ctx context.Context, id string) (*models.Topic, error) {
	const query = `SELECT id, path_id, name, description, order_index, estimated_hours, created_at, updated_at
FROM topics WHERE id = $1`
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, err
	}
	return &topic, nil
}
