package models

import "time"

// Topic is an atomic curriculum unit with a canonical name. Topics belong to
// exactly one learning path and are ordered by OrderIndex.
type Topic struct {
	ID             string    `db:"id" json:"id"`
	PathID         string    `db:"path_id" json:"path_id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	OrderIndex     int       `db:"order_index" json:"order_index"`
	EstimatedHours float64   `db:"estimated_hours" json:"estimated_hours"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// LearningPath is the ordered curriculum for one student. Regeneration creates
// a fresh path version; progress for topics with unchanged canonical names is
// carried over by name, never by id.
type LearningPath struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Goal         string    `db:"goal" json:"goal"`
	CurrentStage string    `db:"current_stage" json:"current_stage"`
	Source       string    `db:"source" json:"source"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Learning path sources mirror SessionAnalysis sources: "ai" when the
// collaborator produced the topics, "fallback" for the deterministic default.
const (
	PathSourceAI       = "ai"
	PathSourceFallback = "fallback"
)
