package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/internal/ai"
	"github.com/noah-isme/learn-coach-api/internal/models"
)

// RecommendationService derives next-topic suggestions and pacing purely from
// ledger state and history. It never writes state. The AI collaborator may
// annotate the result with prose, but never influences which topics surface.
type RecommendationService struct {
	client              ai.Client
	struggleThreshold   int
	struggleRepeats     int
	accelerateThreshold int
	logger              *zap.Logger
}

// NewRecommendationService instantiates RecommendationService with the given
// heuristic thresholds; non-positive values fall back to the defaults 50/2/85.
func NewRecommendationService(client ai.Client, struggleThreshold, struggleRepeats, accelerateThreshold int, logger *zap.Logger) *RecommendationService {
	if struggleThreshold <= 0 {
		struggleThreshold = 50
	}
	if struggleRepeats <= 0 {
		struggleRepeats = 2
	}
	if accelerateThreshold <= 0 {
		accelerateThreshold = 85
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{
		client:              client,
		struggleThreshold:   struggleThreshold,
		struggleRepeats:     struggleRepeats,
		accelerateThreshold: accelerateThreshold,
		logger:              logger,
	}
}

const maxNextTopics = 3

// Derive computes the recommendation from a fresh snapshot of topics, ledger
// statuses and score history. Pure and deterministic.
func (s *RecommendationService) Derive(topics []models.Topic, statuses map[string]models.TopicStatus, analyses []models.SessionAnalysis, assessments []models.Assessment) models.Recommendation {
	lowCounts := make(map[string]int)
	recentScores := make([]int, 0, len(analyses)+len(assessments))
	for _, a := range analyses {
		if a.MatchedTopicID == nil {
			continue
		}
		if a.EffectivenessScore < s.struggleThreshold {
			lowCounts[*a.MatchedTopicID]++
		}
		recentScores = append(recentScores, a.EffectivenessScore)
	}
	for _, a := range assessments {
		if a.ScorePct < s.struggleThreshold {
			lowCounts[a.TopicID]++
		}
		recentScores = append(recentScores, a.ScorePct)
	}

	rec := models.Recommendation{
		NextTopics: make([]models.TopicSuggestion, 0, maxNextTopics),
		Pacing:     models.PacingMaintain,
	}

	// Struggling topics surface first, marked for review.
	for _, topic := range topics {
		if statuses[topic.ID] == models.StatusCompleted {
			continue
		}
		if lowCounts[topic.ID] >= s.struggleRepeats {
			rec.Struggling = append(rec.Struggling, topic.ID)
			if len(rec.NextTopics) < maxNextTopics {
				rec.NextTopics = append(rec.NextTopics, models.TopicSuggestion{
					TopicID:   topic.ID,
					TopicName: topic.Name,
					Reason:    "repeated low effectiveness, review before advancing",
					Review:    true,
				})
			}
		}
	}

	// Then the pending curriculum in order.
	for _, topic := range topics {
		if len(rec.NextTopics) >= maxNextTopics {
			break
		}
		if statuses[topic.ID] == models.StatusCompleted || lowCounts[topic.ID] >= s.struggleRepeats {
			continue
		}
		reason := "next in curriculum order"
		if statuses[topic.ID] == models.StatusInProgress {
			reason = "already in progress"
		}
		rec.NextTopics = append(rec.NextTopics, models.TopicSuggestion{
			TopicID:   topic.ID,
			TopicName: topic.Name,
			Reason:    reason,
		})
	}

	switch {
	case len(rec.Struggling) > 0:
		rec.Pacing = models.PacingSlowDown
	case allAtLeast(lastN(recentScores, 3), s.accelerateThreshold):
		rec.Pacing = models.PacingAccelerate
	}
	return rec
}

type rationaleVerdict struct {
	Rationale string `json:"rationale"`
}

// Annotate optionally asks the collaborator for rationale prose. The
// recommendation is already decided; failure leaves it untouched.
func (s *RecommendationService) Annotate(ctx context.Context, rec *models.Recommendation) {
	if s.client == nil || !s.client.Enabled() || len(rec.NextTopics) == 0 {
		return
	}
	system, prompt := ai.RationalePrompt(*rec)
	raw, err := s.client.Generate(ctx, system, prompt)
	if err != nil {
		s.logger.Warn("ai rationale failed, recommendation left unannotated", zap.Error(err))
		return
	}
	var verdict rationaleVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil || verdict.Rationale == "" {
		return
	}
	rec.Rationale = verdict.Rationale
}

// lastN returns the trailing n scores, oldest first.
func lastN(scores []int, n int) []int {
	if len(scores) < n {
		return nil
	}
	return scores[len(scores)-n:]
}

func allAtLeast(scores []int, threshold int) bool {
	if len(scores) == 0 {
		return false
	}
	for _, score := range scores {
		if score < threshold {
			return false
		}
	}
	return true
}
