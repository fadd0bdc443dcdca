package models

// PacingAdjustment summarises the recommender's pacing verdict.
type PacingAdjustment string

const (
	PacingMaintain   PacingAdjustment = "maintain"
	PacingSlowDown   PacingAdjustment = "slow_down"
	PacingAccelerate PacingAdjustment = "accelerate"
)

// TopicSuggestion is one entry in the recommended next-topic sequence.
type TopicSuggestion struct {
	TopicID   string `json:"topic_id"`
	TopicName string `json:"topic_name"`
	Reason    string `json:"reason"`
	Review    bool   `json:"review"`
}

// Recommendation is a pure read-derived view over the ledger and history.
// Rationale may carry AI-generated prose, but the suggestions and pacing are
// always produced by the deterministic heuristics alone.
type Recommendation struct {
	NextTopics []TopicSuggestion `json:"next_topics"`
	Pacing     PacingAdjustment  `json:"pacing_adjustment"`
	Rationale  string            `json:"rationale,omitempty"`
	Struggling []string          `json:"struggling_topic_ids,omitempty"`
}
