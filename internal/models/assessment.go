package models

import "time"

// AssessmentType enumerates supported assessment categories.
type AssessmentType string

const (
	AssessmentTypeQuiz     AssessmentType = "quiz"
	AssessmentTypeProject  AssessmentType = "project"
	AssessmentTypePractice AssessmentType = "practice"
)

// Assessment is an append-only graded checkpoint against a canonical topic.
type Assessment struct {
	ID         string         `db:"id" json:"id"`
	StudentID  string         `db:"student_id" json:"student_id"`
	TopicID    string         `db:"topic_id" json:"topic_id"`
	Type       AssessmentType `db:"type" json:"type"`
	ScorePct   int            `db:"score_pct" json:"score_pct"`
	Notes      string         `db:"notes" json:"notes"`
	OccurredAt time.Time      `db:"occurred_at" json:"occurred_at"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// ValidAssessmentType reports whether t is a known assessment category.
func ValidAssessmentType(t AssessmentType) bool {
	switch t {
	case AssessmentTypeQuiz, AssessmentTypeProject, AssessmentTypePractice:
		return true
	default:
		return false
	}
}
