package models

import "time"

// TopicStatus is the per-topic ledger state.
type TopicStatus string

const (
	StatusNotStarted TopicStatus = "not_started"
	StatusInProgress TopicStatus = "in_progress"
	StatusCompleted  TopicStatus = "completed"
)

// Rank orders statuses for monotonicity checks.
func (s TopicStatus) Rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}

// CompletionSource records what evidence drove the current status.
type CompletionSource string

const (
	SourceSession    CompletionSource = "session"
	SourceAssessment CompletionSource = "assessment"
	SourceManual     CompletionSource = "manual"
)

// ProgressRecord is the materialized ledger state for one (student, topic)
// pair. It is always recomputed from the full evidence history rather than
// incrementally mutated, so re-applying the same evidence is a no-op.
type ProgressRecord struct {
	StudentID        string           `db:"student_id" json:"student_id"`
	TopicID          string           `db:"topic_id" json:"topic_id"`
	Status           TopicStatus      `db:"status" json:"status"`
	CompletionSource CompletionSource `db:"completion_source" json:"completion_source,omitempty"`
	LastUpdated      time.Time        `db:"last_updated" json:"last_updated"`
}

// OverrideAction enumerates explicit manual ledger actions.
type OverrideAction string

const (
	OverrideComplete OverrideAction = "complete"
	OverrideReset    OverrideAction = "reset"
	OverrideStart    OverrideAction = "start"
)

// ProgressOverride is an append-only manual action. A "reset" acts as a
// tombstone: evidence recorded before it no longer counts toward the status,
// so later sessions or assessments may legitimately re-advance the topic.
type ProgressOverride struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	TopicID   string         `db:"topic_id" json:"topic_id"`
	Action    OverrideAction `db:"action" json:"action"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
