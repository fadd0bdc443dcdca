package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

// SessionRepository persists the append-only study session log and the
// one-per-session analysis verdicts.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Append records a study session. Sessions are never updated or deleted.
func (r *SessionRepository) Append(ctx context.Context, session *models.StudySession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.OccurredAt.IsZero() {
		session.OccurredAt = now
	}
	const query = `INSERT INTO study_sessions (id, student_id, raw_topic_text, duration_minutes, mood, productivity, notes, occurred_at, created_at)
VALUES (:id, :student_id, :raw_topic_text, :duration_minutes, :mood, :productivity, :notes, :occurred_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("append study session: %w", err)
	}
	return nil
}

// ListByStudent returns a student's sessions, newest first.
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudySession, error) {
	const query = `SELECT id, student_id, raw_topic_text, duration_minutes, mood, productivity, notes, occurred_at, created_at
FROM study_sessions WHERE student_id = $1 ORDER BY occurred_at DESC`
	sessions := make([]models.StudySession, 0)
	if err := r.db.SelectContext(ctx, &sessions, query, studentID); err != nil {
		return nil, fmt.Errorf("list study sessions: %w", err)
	}
	return sessions, nil
}

// CreateAnalysis records the scorer's verdict for a session. The primary key
// on session_id makes re-processing the same session a conflict, which the
// orchestrator treats as already-consumed evidence.
func (r *SessionRepository) CreateAnalysis(ctx context.Context, analysis *models.SessionAnalysis) error {
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}
	if len(analysis.AIRawOutput) == 0 {
		analysis.AIRawOutput = []byte("null")
	}
	const query = `INSERT INTO session_analyses (session_id, student_id, effectiveness_score, matched_topic_id, source, ai_raw_output, created_at)
VALUES (:session_id, :student_id, :effectiveness_score, :matched_topic_id, :source, :ai_raw_output, :created_at)
ON CONFLICT (session_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, analysis); err != nil {
		return fmt.Errorf("create session analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the verdict for one session.
func (r *SessionRepository) GetAnalysis(ctx context.Context, sessionID string) (*models.SessionAnalysis, error) {
	const query = `SELECT session_id, student_id, effectiveness_score, matched_topic_id, source, ai_raw_output, created_at
FROM session_analyses WHERE session_id = $1`
	var analysis models.SessionAnalysis
	if err := r.db.GetContext(ctx, &analysis, query, sessionID); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ListAnalysesByStudent returns all verdicts for a student, oldest first,
// the order the ledger replays them in.
func (r *SessionRepository) ListAnalysesByStudent(ctx context.Context, studentID string) ([]models.SessionAnalysis, error) {
	const query = `SELECT session_id, student_id, effectiveness_score, matched_topic_id, source, ai_raw_output, created_at
FROM session_analyses WHERE student_id = $1 ORDER BY created_at ASC`
	analyses := make([]models.SessionAnalysis, 0)
	if err := r.db.SelectContext(ctx, &analyses, query, studentID); err != nil {
		return nil, fmt.Errorf("list session analyses: %w", err)
	}
	return analyses, nil
}
