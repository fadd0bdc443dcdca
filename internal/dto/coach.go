package dto

import (
	"time"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

// CreatePathRequest captures POST /paths.
type CreatePathRequest struct {
	Goal        string   `json:"goal" validate:"required,min=2,max=200"`
	Focus       []string `json:"focus,omitempty"`
	WeeklyHours float64  `json:"weekly_hours" validate:"omitempty,gt=0,lte=80"`
}

// PathResponse returns the learning path with its ordered topics.
type PathResponse struct {
	Path   models.LearningPath `json:"path"`
	Topics []models.Topic      `json:"topics"`
}

// RegeneratePathResponse reports how progress survived regeneration.
type RegeneratePathResponse struct {
	Path      models.LearningPath `json:"path"`
	Topics    []models.Topic      `json:"topics"`
	Preserved int                 `json:"preserved_topics"`
	Fresh     int                 `json:"fresh_topics"`
}

// LogSessionRequest captures POST /sessions.
type LogSessionRequest struct {
	RawTopic        string    `json:"raw_topic" validate:"required,min=1,max=300"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0,lte=1440"`
	Mood            int       `json:"mood" validate:"required,min=1,max=5"`
	Productivity    int       `json:"productivity" validate:"required,min=1,max=5"`
	Notes           string    `json:"notes" validate:"max=5000"`
	OccurredAt      time.Time `json:"occurred_at"`
	UseAI           bool      `json:"use_ai"`
}

// Match statuses surfaced to callers so the UI can prompt on unmatched topics.
const (
	MatchStatusMatched   = "matched"
	MatchStatusUnmatched = "unmatched"
)

// LogSessionResponse returns the stored session with the downstream effects of
// the logging workflow: analysis verdict, resulting ledger state, refreshed
// schedule and recommendations.
type LogSessionResponse struct {
	Session         models.StudySession    `json:"session"`
	Analysis        models.SessionAnalysis `json:"analysis"`
	MatchStatus     string                 `json:"match_status"`
	Progress        *models.ProgressRecord `json:"progress,omitempty"`
	Schedule        *ScheduleResponse      `json:"schedule,omitempty"`
	Recommendations *models.Recommendation `json:"recommendations,omitempty"`
}

// LogAssessmentRequest captures POST /assessments.
type LogAssessmentRequest struct {
	TopicID    string                `json:"topic_id" validate:"required"`
	Type       models.AssessmentType `json:"type" validate:"required"`
	ScorePct   int                   `json:"score_pct" validate:"min=0,max=100"`
	Notes      string                `json:"notes" validate:"max=5000"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// LogAssessmentResponse mirrors LogSessionResponse for the assessment flow.
type LogAssessmentResponse struct {
	Assessment      models.Assessment      `json:"assessment"`
	Progress        models.ProgressRecord  `json:"progress"`
	Schedule        *ScheduleResponse      `json:"schedule,omitempty"`
	Recommendations *models.Recommendation `json:"recommendations,omitempty"`
}

// ProgressTopicView joins a topic with its ledger state for GET /progress.
type ProgressTopicView struct {
	Topic    models.Topic          `json:"topic"`
	Progress models.ProgressRecord `json:"progress"`
}

// ProgressResponse is the full progress view for a student.
type ProgressResponse struct {
	Topics         []ProgressTopicView `json:"topics"`
	CompletedCount int                 `json:"completed_count"`
	TotalCount     int                 `json:"total_count"`
}

// UpdatePreferencesRequest captures PUT /schedule/preferences.
type UpdatePreferencesRequest struct {
	AvailableDays []string          `json:"available_days" validate:"required,min=1,dive,required"`
	TimeSlots     []models.TimeSlot `json:"time_slots" validate:"required,min=1,dive,required"`
	WeeklyHours   float64           `json:"weekly_hours" validate:"required,gt=0,lte=100"`
}

// ScheduleResponse is the current schedule snapshot with its blocks.
type ScheduleResponse struct {
	Version   int                    `json:"version"`
	Reason    string                 `json:"reason,omitempty"`
	Blocks    []models.ScheduleBlock `json:"blocks"`
	TotalMins int                    `json:"total_planned_minutes"`
	CreatedAt time.Time              `json:"created_at"`
}
