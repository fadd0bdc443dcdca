package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learn-coach-api/internal/models"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
)

type stubProgressRepo struct {
	records   map[string]models.ProgressRecord
	overrides []models.ProgressOverride
}

func newStubProgressRepo() *stubProgressRepo {
	return &stubProgressRepo{records: make(map[string]models.ProgressRecord)}
}

func (s *stubProgressRepo) Upsert(ctx context.Context, record *models.ProgressRecord) error {
	s.records[record.StudentID+"/"+record.TopicID] = *record
	return nil
}

func (s *stubProgressRepo) ListByStudent(ctx context.Context, studentID string) ([]models.ProgressRecord, error) {
	out := make([]models.ProgressRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubProgressRepo) AppendOverride(ctx context.Context, override *models.ProgressOverride) error {
	if override.CreatedAt.IsZero() {
		override.CreatedAt = time.Now().UTC()
	}
	s.overrides = append(s.overrides, *override)
	return nil
}

func (s *stubProgressRepo) ListOverrides(ctx context.Context, studentID string) ([]models.ProgressOverride, error) {
	out := make([]models.ProgressOverride, 0, len(s.overrides))
	for _, o := range s.overrides {
		if o.StudentID == studentID {
			out = append(out, o)
		}
	}
	return out, nil
}

type stubAnalysisReader struct{ analyses []models.SessionAnalysis }

func (s *stubAnalysisReader) ListAnalysesByStudent(ctx context.Context, studentID string) ([]models.SessionAnalysis, error) {
	return s.analyses, nil
}

type stubAssessmentReader struct{ assessments []models.Assessment }

func (s *stubAssessmentReader) ListByStudent(ctx context.Context, studentID string) ([]models.Assessment, error) {
	return s.assessments, nil
}

func analysisFor(topicID string, score int, at time.Time) models.SessionAnalysis {
	return models.SessionAnalysis{
		SessionID:          "ses-" + at.Format("150405"),
		StudentID:          "stu-1",
		EffectivenessScore: score,
		MatchedTopicID:     &topicID,
		Source:             models.AnalysisSourceFallback,
		CreatedAt:          at,
	}
}

func TestLedgerThresholdBoundary(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	below := analysisFor("top-1", 69, base)
	status, _ := deriveStatus("top-1", []models.SessionAnalysis{below}, nil, nil, 70)
	require.Equal(t, models.StatusInProgress, status)

	at := analysisFor("top-1", 70, base)
	status, source := deriveStatus("top-1", []models.SessionAnalysis{at}, nil, nil, 70)
	require.Equal(t, models.StatusCompleted, status)
	require.Equal(t, models.SourceSession, source)
}

func TestLedgerIdempotence(t *testing.T) {
	repo := newStubProgressRepo()
	analyses := &stubAnalysisReader{}
	svc := NewProgressService(repo, analyses, &stubAssessmentReader{}, 70, nil)

	verdict := analysisFor("top-1", 85, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	analyses.analyses = []models.SessionAnalysis{verdict}

	first, err := svc.ApplySessionResult(context.Background(), &verdict)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, first.Status)

	// Re-applying the same verdict replays the same history.
	second, err := svc.ApplySessionResult(context.Background(), &verdict)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.CompletionSource, second.CompletionSource)
}

func TestLedgerMonotonicity(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	history := []models.SessionAnalysis{
		analysisFor("top-1", 90, base),
		analysisFor("top-1", 20, base.Add(time.Hour)),
	}
	// A weak later session never regresses a completed topic.
	status, source := deriveStatus("top-1", history, nil, nil, 70)
	require.Equal(t, models.StatusCompleted, status)
	require.Equal(t, models.SourceSession, source)
}

func TestLedgerAssessmentCompletes(t *testing.T) {
	assessment := models.Assessment{
		ID: "asm-1", StudentID: "stu-1", TopicID: "top-1",
		Type: models.AssessmentTypeQuiz, ScorePct: 80,
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	status, source := deriveStatus("top-1", nil, []models.Assessment{assessment}, nil, 70)
	require.Equal(t, models.StatusCompleted, status)
	require.Equal(t, models.SourceAssessment, source)
}

func TestLedgerResetTombstoneAllowsReadvance(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	analyses := []models.SessionAnalysis{
		analysisFor("top-1", 95, base),
		analysisFor("top-1", 75, base.Add(3*time.Hour)),
	}
	overrides := []models.ProgressOverride{
		{ID: "ovr-1", StudentID: "stu-1", TopicID: "top-1", Action: models.OverrideReset, CreatedAt: base.Add(time.Hour)},
	}
	// Evidence before the reset is discarded; the later session re-completes.
	status, source := deriveStatus("top-1", analyses, nil, overrides, 70)
	require.Equal(t, models.StatusCompleted, status)
	require.Equal(t, models.SourceSession, source)

	// Without the later session the reset leaves the topic untouched.
	status, _ = deriveStatus("top-1", analyses[:1], nil, overrides, 70)
	require.Equal(t, models.StatusNotStarted, status)
}

func TestLedgerManualCompleteFromAnyState(t *testing.T) {
	repo := newStubProgressRepo()
	svc := NewProgressService(repo, &stubAnalysisReader{}, &stubAssessmentReader{}, 70, nil)

	record, err := svc.Override(context.Background(), "stu-1", "top-1", models.OverrideComplete)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, record.Status)
	require.Equal(t, models.SourceManual, record.CompletionSource)
}

func TestLedgerStartOnCompletedRejected(t *testing.T) {
	repo := newStubProgressRepo()
	svc := NewProgressService(repo, &stubAnalysisReader{}, &stubAssessmentReader{}, 70, nil)

	_, err := svc.Override(context.Background(), "stu-1", "top-1", models.OverrideComplete)
	require.NoError(t, err)

	_, err = svc.Override(context.Background(), "stu-1", "top-1", models.OverrideStart)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestLedgerUnmatchedAnalysisIsNoOp(t *testing.T) {
	repo := newStubProgressRepo()
	svc := NewProgressService(repo, &stubAnalysisReader{}, &stubAssessmentReader{}, 70, nil)

	record, err := svc.ApplySessionResult(context.Background(), &models.SessionAnalysis{
		SessionID: "ses-1", StudentID: "stu-1", EffectivenessScore: 99,
	})
	require.NoError(t, err)
	require.Nil(t, record)
	require.Empty(t, repo.records)
}

func TestLedgerView(t *testing.T) {
	repo := newStubProgressRepo()
	analyses := &stubAnalysisReader{analyses: []models.SessionAnalysis{
		analysisFor("top-1", 90, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
	}}
	svc := NewProgressService(repo, analyses, &stubAssessmentReader{}, 70, nil)

	topics := []models.Topic{
		{ID: "top-1", Name: "Goroutines", OrderIndex: 1},
		{ID: "top-2", Name: "Channels", OrderIndex: 2},
	}
	view, err := svc.View(context.Background(), "stu-1", topics)
	require.NoError(t, err)
	require.Equal(t, 2, view.TotalCount)
	require.Equal(t, 1, view.CompletedCount)
	require.Equal(t, models.StatusCompleted, view.Topics[0].Progress.Status)
	require.Equal(t, models.StatusNotStarted, view.Topics[1].Progress.Status)
}
