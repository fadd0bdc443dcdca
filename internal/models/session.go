package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StudySession is an immutable, append-only record of one study sitting.
// RawTopicText is free text; resolution to a canonical topic happens later in
// the matcher and is stored on the SessionAnalysis, never back onto the session.
type StudySession struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	RawTopicText    string    `db:"raw_topic_text" json:"raw_topic_text"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Mood            int       `db:"mood" json:"mood"`
	Productivity    int       `db:"productivity" json:"productivity"`
	Notes           string    `db:"notes" json:"notes"`
	OccurredAt      time.Time `db:"occurred_at" json:"occurred_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Analysis sources. "ai" means a validated collaborator response contributed
// to the score; "fallback" means the deterministic formula was used.
const (
	AnalysisSourceAI       = "ai"
	AnalysisSourceFallback = "fallback"
)

// SessionAnalysis is the scorer's verdict for one session. Exactly one exists
// per session and it is never mutated; the ledger recomputes progress from the
// full analysis history instead.
type SessionAnalysis struct {
	SessionID          string         `db:"session_id" json:"session_id"`
	StudentID          string         `db:"student_id" json:"student_id"`
	EffectivenessScore int            `db:"effectiveness_score" json:"effectiveness_score"`
	MatchedTopicID     *string        `db:"matched_topic_id" json:"matched_topic_id,omitempty"`
	Source             string         `db:"source" json:"source"`
	AIRawOutput        types.JSONText `db:"ai_raw_output" json:"ai_raw_output,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}
