package service

import (
	"strings"
	"unicode"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

// TopicMatcher resolves free-text topic references against the canonical
// topics of a learning path. No match is a valid outcome, not an error.
type TopicMatcher struct {
	threshold float64
}

// NewTopicMatcher constructs a matcher. A non-positive threshold falls back
// to 0.5, the token-overlap level below which matches get too noisy.
func NewTopicMatcher(threshold float64) *TopicMatcher {
	if threshold <= 0 {
		threshold = 0.5
	}
	return &TopicMatcher{threshold: threshold}
}

// Match resolves raw against topics, trying in order: exact normalized name,
// token containment in either direction, then Jaccard token overlap at or
// above the threshold. Topics must arrive in curriculum order; among equal
// fuzzy scores the earliest topic wins, keeping results deterministic.
func (m *TopicMatcher) Match(raw string, topics []models.Topic) (*models.Topic, bool) {
	rawTokens := tokenize(raw)
	if len(rawTokens) == 0 {
		return nil, false
	}
	rawNorm := strings.Join(rawTokens, " ")

	for i := range topics {
		if strings.Join(tokenize(topics[i].Name), " ") == rawNorm {
			return &topics[i], true
		}
	}

	for i := range topics {
		nameTokens := tokenize(topics[i].Name)
		if containsAll(nameTokens, rawTokens) || containsAll(rawTokens, nameTokens) {
			return &topics[i], true
		}
	}

	var best *models.Topic
	bestScore := 0.0
	for i := range topics {
		score := jaccard(rawTokens, tokenize(topics[i].Name))
		if score >= m.threshold && score > bestScore {
			best = &topics[i]
			bestScore = score
		}
	}
	if best != nil {
		return best, true
	}
	return nil, false
}

// tokenize lowercases and splits on any non-alphanumeric rune.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// containsAll reports whether every token of sub occurs in set. Containment
// is token-level on purpose: "calc" must not swallow "calculus".
func containsAll(set, sub []string) bool {
	if len(sub) == 0 {
		return false
	}
	members := make(map[string]struct{}, len(set))
	for _, tok := range set {
		members[tok] = struct{}{}
	}
	for _, tok := range sub {
		if _, ok := members[tok]; !ok {
			return false
		}
	}
	return true
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, tok := range a {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, tok := range b {
		setB[tok] = struct{}{}
	}
	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
