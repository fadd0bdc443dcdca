package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learn-coach-api/internal/ai"
	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/models"
)

type stubTopicRepo struct {
	path   *models.LearningPath
	topics []models.Topic
}

func (s *stubTopicRepo) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("not supported in stub")
}

func (s *stubTopicRepo) CreatePath(ctx context.Context, exec sqlx.ExtContext, path *models.LearningPath) error {
	return errors.New("not supported in stub")
}

func (s *stubTopicRepo) BulkCreateTopics(ctx context.Context, exec sqlx.ExtContext, topics []models.Topic) error {
	return errors.New("not supported in stub")
}

func (s *stubTopicRepo) GetActivePath(ctx context.Context, studentID string) (*models.LearningPath, error) {
	if s.path == nil {
		return nil, sql.ErrNoRows
	}
	return s.path, nil
}

func (s *stubTopicRepo) ListTopicsByPath(ctx context.Context, pathID string) ([]models.Topic, error) {
	return s.topics, nil
}

func (s *stubTopicRepo) FindTopicByID(ctx context.Context, id string) (*models.Topic, error) {
	for i := range s.topics {
		if s.topics[i].ID == id {
			return &s.topics[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubSessionRepo struct {
	sessions []models.StudySession
	analyses []models.SessionAnalysis
}

func (s *stubSessionRepo) Append(ctx context.Context, session *models.StudySession) error {
	if session.ID == "" {
		session.ID = "ses-stub"
	}
	if session.OccurredAt.IsZero() {
		session.OccurredAt = time.Now().UTC()
	}
	s.sessions = append(s.sessions, *session)
	return nil
}

func (s *stubSessionRepo) ListByStudent(ctx context.Context, studentID string) ([]models.StudySession, error) {
	return s.sessions, nil
}

func (s *stubSessionRepo) CreateAnalysis(ctx context.Context, analysis *models.SessionAnalysis) error {
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}
	for _, existing := range s.analyses {
		if existing.SessionID == analysis.SessionID {
			return nil
		}
	}
	s.analyses = append(s.analyses, *analysis)
	return nil
}

func (s *stubSessionRepo) ListAnalysesByStudent(ctx context.Context, studentID string) ([]models.SessionAnalysis, error) {
	return s.analyses, nil
}

type stubAssessmentRepo struct {
	assessments []models.Assessment
}

func (s *stubAssessmentRepo) Append(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = "asm-stub"
	}
	if assessment.OccurredAt.IsZero() {
		assessment.OccurredAt = time.Now().UTC()
	}
	s.assessments = append(s.assessments, *assessment)
	return nil
}

func (s *stubAssessmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Assessment, error) {
	return s.assessments, nil
}

type coachFixture struct {
	coach       *CoachService
	topicRepo   *stubTopicRepo
	sessionRepo *stubSessionRepo
	assessRepo  *stubAssessmentRepo
	schedRepo   *stubScheduleRepo
}

func newCoachFixture(t *testing.T, client ai.Client) *coachFixture {
	t.Helper()
	topicRepo := &stubTopicRepo{
		path: &models.LearningPath{ID: "path-1", StudentID: "stu-1", Goal: "Go Concurrency"},
		topics: []models.Topic{
			{ID: "top-1", PathID: "path-1", Name: "Goroutines", OrderIndex: 1, EstimatedHours: 2},
			{ID: "top-2", PathID: "path-1", Name: "Channels", OrderIndex: 2, EstimatedHours: 3},
		},
	}
	sessionRepo := &stubSessionRepo{}
	assessRepo := &stubAssessmentRepo{}
	progressRepo := newStubProgressRepo()
	schedRepo := &stubScheduleRepo{
		prefs: prefsWith([]string{"MONDAY", "WEDNESDAY"}, []models.TimeSlot{models.SlotMorning, models.SlotEvening}, 5),
	}

	paths := NewPathService(topicRepo, client, nil, nil)
	ledger := NewProgressService(progressRepo, sessionRepo, assessRepo, 70, nil)
	schedule := NewScheduleService(schedRepo, nil, 60, nil)
	recommender := NewRecommendationService(client, 50, 2, 85, nil)
	coach := NewCoachService(
		paths,
		NewTopicMatcher(0.5),
		NewEffectivenessScorer(client, nil),
		ledger,
		schedule,
		recommender,
		sessionRepo,
		assessRepo,
		nil,
		nil,
		nil,
		nil,
	)
	return &coachFixture{coach: coach, topicRepo: topicRepo, sessionRepo: sessionRepo, assessRepo: assessRepo, schedRepo: schedRepo}
}

func TestCoachLogSessionFallbackOnAIFailure(t *testing.T) {
	client := &stubAIClient{enabled: true, err: errors.New("upstream down")}
	fx := newCoachFixture(t, client)

	resp, err := fx.coach.LogSession(context.Background(), "stu-1", dto.LogSessionRequest{
		RawTopic:        "goroutines",
		DurationMinutes: 60,
		Mood:            5,
		Productivity:    5,
		UseAI:           true,
	})
	require.NoError(t, err)

	require.Equal(t, models.AnalysisSourceFallback, resp.Analysis.Source)
	require.GreaterOrEqual(t, resp.Analysis.EffectivenessScore, 0)
	require.LessOrEqual(t, resp.Analysis.EffectivenessScore, 100)
	require.Equal(t, dto.MatchStatusMatched, resp.MatchStatus)
	require.NotNil(t, resp.Progress)
	// 5/5/60min fallback clamps to 100, above the completion threshold.
	require.Equal(t, models.StatusCompleted, resp.Progress.Status)
	require.NotNil(t, resp.Schedule)
	require.NotNil(t, resp.Recommendations)
}

func TestCoachLogSessionUnmatchedLeavesLedgerUntouched(t *testing.T) {
	fx := newCoachFixture(t, nil)

	resp, err := fx.coach.LogSession(context.Background(), "stu-1", dto.LogSessionRequest{
		RawTopic:        "quantum chromodynamics",
		DurationMinutes: 30,
		Mood:            3,
		Productivity:    3,
	})
	require.NoError(t, err)

	require.Equal(t, dto.MatchStatusUnmatched, resp.MatchStatus)
	require.Nil(t, resp.Progress)
	require.Nil(t, resp.Analysis.MatchedTopicID)
	// The session itself is still recorded.
	require.Len(t, fx.sessionRepo.sessions, 1)
	require.Len(t, fx.sessionRepo.analyses, 1)
}

func TestCoachLogSessionRebuildsScheduleAroundProgress(t *testing.T) {
	fx := newCoachFixture(t, nil)

	resp, err := fx.coach.LogSession(context.Background(), "stu-1", dto.LogSessionRequest{
		RawTopic:        "goroutines",
		DurationMinutes: 60,
		Mood:            5,
		Productivity:    5,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, resp.Progress.Status)

	// The completed topic no longer occupies schedule blocks.
	for _, block := range resp.Schedule.Blocks {
		require.Equal(t, "top-2", block.TopicID)
	}
}

func TestCoachLogAssessmentCompletesTopic(t *testing.T) {
	fx := newCoachFixture(t, nil)

	resp, err := fx.coach.LogAssessment(context.Background(), "stu-1", dto.LogAssessmentRequest{
		TopicID:  "top-2",
		Type:     models.AssessmentTypeQuiz,
		ScorePct: 85,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, resp.Progress.Status)
	require.Equal(t, models.SourceAssessment, resp.Progress.CompletionSource)
}

func TestCoachLogAssessmentRejectsForeignTopic(t *testing.T) {
	fx := newCoachFixture(t, nil)
	fx.topicRepo.topics = append(fx.topicRepo.topics, models.Topic{ID: "top-x", PathID: "other-path", Name: "Stray"})

	_, err := fx.coach.LogAssessment(context.Background(), "stu-1", dto.LogAssessmentRequest{
		TopicID:  "top-x",
		Type:     models.AssessmentTypeQuiz,
		ScorePct: 90,
	})
	require.Error(t, err)
}

func TestCoachManualCompleteAndReset(t *testing.T) {
	fx := newCoachFixture(t, nil)

	record, err := fx.coach.ManualComplete(context.Background(), "stu-1", "top-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, record.Status)
	require.Equal(t, models.SourceManual, record.CompletionSource)

	record, err = fx.coach.ManualReset(context.Background(), "stu-1", "top-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusNotStarted, record.Status)
}

func TestCoachProgressView(t *testing.T) {
	fx := newCoachFixture(t, nil)

	_, err := fx.coach.ManualComplete(context.Background(), "stu-1", "top-1")
	require.NoError(t, err)

	view, err := fx.coach.Progress(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Equal(t, 2, view.TotalCount)
	require.Equal(t, 1, view.CompletedCount)
}

func TestCoachUpdatePreferencesReoptimizes(t *testing.T) {
	fx := newCoachFixture(t, nil)

	resp, err := fx.coach.UpdatePreferences(context.Background(), "stu-1", dto.UpdatePreferencesRequest{
		AvailableDays: []string{"saturday", "sunday"},
		TimeSlots:     []models.TimeSlot{models.SlotAfternoon},
		WeeklyHours:   2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Blocks)
	for _, block := range resp.Blocks {
		require.Contains(t, []string{"SATURDAY", "SUNDAY"}, block.Day)
		require.Equal(t, models.SlotAfternoon, block.Slot)
	}
}

func TestCoachLogSessionRequiresActivePath(t *testing.T) {
	fx := newCoachFixture(t, nil)
	fx.topicRepo.path = nil

	_, err := fx.coach.LogSession(context.Background(), "stu-1", dto.LogSessionRequest{
		RawTopic:        "goroutines",
		DurationMinutes: 30,
		Mood:            3,
		Productivity:    3,
	})
	require.Error(t, err)
}
