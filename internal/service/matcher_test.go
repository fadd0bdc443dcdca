package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learn-coach-api/internal/models"
)

func matcherTopics() []models.Topic {
	return []models.Topic{
		{ID: "top-1", Name: "Introduction to Linear Algebra", OrderIndex: 1},
		{ID: "top-2", Name: "Calculus II", OrderIndex: 2},
		{ID: "top-3", Name: "Linear Regression", OrderIndex: 3},
	}
}

func TestMatcherExactCaseInsensitive(t *testing.T) {
	m := NewTopicMatcher(0.5)
	topic, ok := m.Match("introduction to linear algebra", matcherTopics())
	require.True(t, ok)
	require.Equal(t, "top-1", topic.ID)
}

func TestMatcherFuzzyAbbreviatedPrefix(t *testing.T) {
	m := NewTopicMatcher(0.5)
	// {intro, to, linear, algebra} vs {introduction, to, linear, algebra}:
	// overlap 3/5 = 0.6, above threshold.
	topic, ok := m.Match("intro to linear algebra", matcherTopics())
	require.True(t, ok)
	require.Equal(t, "top-1", topic.ID)
}

func TestMatcherShortFragmentDoesNotMatch(t *testing.T) {
	m := NewTopicMatcher(0.5)
	// "calc" shares no whole token with "Calculus II"; substring containment
	// inside a token must not count.
	_, ok := m.Match("calc", matcherTopics())
	require.False(t, ok)
}

func TestMatcherTokenContainment(t *testing.T) {
	m := NewTopicMatcher(0.5)
	topic, ok := m.Match("calculus", matcherTopics())
	require.True(t, ok)
	require.Equal(t, "top-2", topic.ID)
}

func TestMatcherTieBreaksToEarliestTopic(t *testing.T) {
	m := NewTopicMatcher(0.5)
	topics := []models.Topic{
		{ID: "top-1", Name: "Sorting Algorithms Basics", OrderIndex: 1},
		{ID: "top-2", Name: "Sorting Algorithms Advanced", OrderIndex: 2},
	}
	// Equal overlap with both candidates; the earlier order index wins.
	topic, ok := m.Match("sorting algorithms deep", topics)
	require.True(t, ok)
	require.Equal(t, "top-1", topic.ID)
}

func TestMatcherEmptyInput(t *testing.T) {
	m := NewTopicMatcher(0.5)
	_, ok := m.Match("   ", matcherTopics())
	require.False(t, ok)
}
