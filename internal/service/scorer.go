package service

import (
	"context"
	"encoding/json"
	"math"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/internal/ai"
	"github.com/noah-isme/learn-coach-api/internal/models"
)

// EffectivenessScorer turns one study session into a 0-100 SessionAnalysis.
// The AI collaborator contributes a comprehension estimate when available;
// every path through Score ends in a valid analysis, so AI failure is never
// surfaced to the caller.
type EffectivenessScorer struct {
	client ai.Client
	logger *zap.Logger
}

// NewEffectivenessScorer constructs the scorer.
func NewEffectivenessScorer(client ai.Client, logger *zap.Logger) *EffectivenessScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EffectivenessScorer{client: client, logger: logger}
}

// sessionVerdict is the schema expected from the collaborator. Fields are
// pointers so a missing value is distinguishable from zero and rejected.
type sessionVerdict struct {
	ComprehensionEstimate *float64 `json:"comprehension_estimate"`
	EffectivenessNotes    string   `json:"effectiveness_notes"`
	ConceptsIdentified    []string `json:"concepts_identified"`
}

// Score produces the analysis for a session. useAI requests a collaborator
// call; any failure or schema violation falls through to the deterministic
// formula with source="fallback".
func (s *EffectivenessScorer) Score(ctx context.Context, session *models.StudySession, topic *models.Topic, useAI bool) *models.SessionAnalysis {
	analysis := &models.SessionAnalysis{
		SessionID: session.ID,
		StudentID: session.StudentID,
		Source:    models.AnalysisSourceFallback,
	}
	if topic != nil {
		analysis.MatchedTopicID = &topic.ID
	}

	if useAI && s.client != nil && s.client.Enabled() {
		system, prompt := ai.SessionPrompt(*session, topic)
		raw, err := s.client.Generate(ctx, system, prompt)
		if err == nil {
			var verdict sessionVerdict
			if jsonErr := json.Unmarshal(raw, &verdict); jsonErr == nil && validVerdict(verdict) {
				analysis.EffectivenessScore = weightedScore(session, topic, *verdict.ComprehensionEstimate)
				analysis.Source = models.AnalysisSourceAI
				analysis.AIRawOutput = types.JSONText(raw)
				return analysis
			}
			s.logger.Warn("ai session verdict failed validation, using fallback",
				zap.String("session_id", session.ID))
		} else {
			s.logger.Warn("ai session scoring failed, using fallback",
				zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	analysis.EffectivenessScore = FallbackScore(session)
	return analysis
}

func validVerdict(v sessionVerdict) bool {
	return v.ComprehensionEstimate != nil &&
		*v.ComprehensionEstimate >= 0 && *v.ComprehensionEstimate <= 100
}

// weightedScore blends the AI comprehension estimate with session metadata:
// 40% comprehension, 30% productivity, 20% mood, 10% duration adequacy.
func weightedScore(session *models.StudySession, topic *models.Topic, comprehension float64) int {
	productivity := float64(session.Productivity) / 5 * 100
	mood := float64(session.Mood) / 5 * 100
	score := 0.4*comprehension + 0.3*productivity + 0.2*mood + 0.1*durationAdequacy(session, topic)
	return clampScore(int(math.Round(score)))
}

// durationAdequacy compares session length against the topic's estimated
// effort. Without a matched topic there is nothing to compare against, so the
// component stays neutral.
func durationAdequacy(session *models.StudySession, topic *models.Topic) float64 {
	if topic == nil || topic.EstimatedHours <= 0 {
		return 50
	}
	expected := topic.EstimatedHours * 60
	ratio := float64(session.DurationMinutes) / expected
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}

// FallbackScore is the deterministic, AI-independent formula:
// productivity x 20 + mood x 10 + min(duration/30, 1) x 30, clamped to [0,100].
func FallbackScore(session *models.StudySession) int {
	durationFactor := float64(session.DurationMinutes) / 30
	if durationFactor > 1 {
		durationFactor = 1
	}
	score := float64(session.Productivity)*20 + float64(session.Mood)*10 + durationFactor*30
	return clampScore(int(math.Round(score)))
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
