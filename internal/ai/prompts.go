package ai

import (
	"fmt"
	"strings"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

// Prompt builders for the three collaborator calls. Each system prompt pins
// the exact JSON shape so responses can be validated against a typed schema.

const pathSystemPrompt = `You are an expert educational path designer. Generate a personalized learning path.

Respond with a single JSON object of this exact shape:
{
  "topics": [
    {"name": "string", "description": "string", "estimated_hours": number}
  ],
  "current_stage": "string"
}

Rules:
- 3 to 5 topics, ordered from fundamentals to practice
- estimated_hours between 1 and 20
- topic names must be short canonical titles`

// PathPrompt asks for a personalized curriculum.
func PathPrompt(goal string, focus []string) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Learning goal: %s\n", goal)
	if len(focus) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s\n", strings.Join(focus, ", "))
	}
	b.WriteString("Generate a personalized learning path for this student.")
	return pathSystemPrompt, b.String()
}

const sessionSystemPrompt = `You are an AI learning coach evaluating one study session.

Respond with a single JSON object of this exact shape:
{
  "comprehension_estimate": number,
  "effectiveness_notes": "string",
  "concepts_identified": ["string"]
}

Rules:
- comprehension_estimate is 0-100, your estimate of how well the material was understood
- base the estimate on duration, ratings and the student's own notes
- be realistic, not encouraging`

// SessionPrompt asks for a comprehension estimate for one session.
func SessionPrompt(session models.StudySession, topic *models.Topic) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic studied: %s\n", session.RawTopicText)
	if topic != nil {
		fmt.Fprintf(&b, "Matched curriculum topic: %s (estimated %.1f hours total)\n", topic.Name, topic.EstimatedHours)
	}
	fmt.Fprintf(&b, "Duration: %d minutes\n", session.DurationMinutes)
	fmt.Fprintf(&b, "Mood rating: %d/5\n", session.Mood)
	fmt.Fprintf(&b, "Productivity rating: %d/5\n", session.Productivity)
	if session.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", session.Notes)
	}
	b.WriteString("Evaluate this study session.")
	return sessionSystemPrompt, b.String()
}

const rationaleSystemPrompt = `You are an educational coach writing a short rationale for already-decided recommendations.

Respond with a single JSON object of this exact shape:
{
  "rationale": "string"
}

Rules:
- 2 to 4 sentences, addressed to the student
- explain the listed recommendations, do not add or remove topics`

// RationalePrompt asks for prose explaining heuristic-chosen suggestions.
// The AI never chooses the topics; it only annotates the decision.
func RationalePrompt(rec models.Recommendation) (system, user string) {
	var b strings.Builder
	b.WriteString("Recommended next topics, in order:\n")
	for _, s := range rec.NextTopics {
		fmt.Fprintf(&b, "- %s (%s)\n", s.TopicName, s.Reason)
	}
	fmt.Fprintf(&b, "Pacing adjustment: %s\n", rec.Pacing)
	b.WriteString("Write a short rationale for these recommendations.")
	return rationaleSystemPrompt, b.String()
}
