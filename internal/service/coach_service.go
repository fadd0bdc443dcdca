package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/models"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
)

type sessionRepository interface {
	Append(ctx context.Context, session *models.StudySession) error
	ListByStudent(ctx context.Context, studentID string) ([]models.StudySession, error)
	CreateAnalysis(ctx context.Context, analysis *models.SessionAnalysis) error
	ListAnalysesByStudent(ctx context.Context, studentID string) ([]models.SessionAnalysis, error)
}

type assessmentRepository interface {
	Append(ctx context.Context, assessment *models.Assessment) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Assessment, error)
}

// CoachService is the orchestrator: it sequences matcher, scorer, ledger,
// optimizer and recommender for each caller-facing action. All mutating
// operations for one student are serialized behind a per-student lock;
// students are independent.
type CoachService struct {
	paths       *PathService
	matcher     *TopicMatcher
	scorer      *EffectivenessScorer
	ledger      *ProgressService
	schedule    *ScheduleService
	recommender *RecommendationService
	sessions    sessionRepository
	assessments assessmentRepository
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoachService instantiates CoachService.
func NewCoachService(
	paths *PathService,
	matcher *TopicMatcher,
	scorer *EffectivenessScorer,
	ledger *ProgressService,
	schedule *ScheduleService,
	recommender *RecommendationService,
	sessions sessionRepository,
	assessments assessmentRepository,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *CoachService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoachService{
		paths:       paths,
		matcher:     matcher,
		scorer:      scorer,
		ledger:      ledger,
		schedule:    schedule,
		recommender: recommender,
		sessions:    sessions,
		assessments: assessments,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockStudent serializes mutating operations for one student.
func (s *CoachService) lockStudent(studentID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[studentID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[studentID] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// CreatePath builds a new learning path and its first schedule.
func (s *CoachService) CreatePath(ctx context.Context, studentID string, req dto.CreatePathRequest) (*dto.PathResponse, error) {
	defer s.lockStudent(studentID)()

	resp, err := s.paths.Generate(ctx, studentID, req)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAICall("path", resp.Path.Source == models.PathSourceAI)
	if resp.Path.Source == models.PathSourceFallback {
		s.metrics.RecordFallback("path")
	}

	if _, err := s.rebuildSchedule(ctx, studentID, resp.Topics, "path created"); err != nil {
		return nil, err
	}
	s.cache.InvalidateStudent(ctx, studentID)
	return resp, nil
}

// RegeneratePath replaces the curriculum while preserving progress for topics
// whose canonical name is unchanged. Carry-over matches by name, never by id,
// since regeneration creates fresh topic rows.
func (s *CoachService) RegeneratePath(ctx context.Context, studentID string, req dto.CreatePathRequest) (*dto.RegeneratePathResponse, error) {
	defer s.lockStudent(studentID)()

	_, oldTopics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return nil, err
	}
	oldStatuses, err := s.ledger.StatusMap(ctx, studentID, oldTopics)
	if err != nil {
		return nil, err
	}
	statusByName := make(map[string]models.TopicStatus, len(oldTopics))
	for _, topic := range oldTopics {
		statusByName[normalizeTopicName(topic.Name)] = oldStatuses[topic.ID]
	}

	resp, err := s.paths.Generate(ctx, studentID, req)
	if err != nil {
		return nil, err
	}

	preserved := 0
	for _, topic := range resp.Topics {
		status, ok := statusByName[normalizeTopicName(topic.Name)]
		if !ok || status == models.StatusNotStarted {
			continue
		}
		if err := s.ledger.CarryOver(ctx, studentID, topic.ID, status); err != nil {
			return nil, err
		}
		preserved++
	}

	if _, err := s.rebuildSchedule(ctx, studentID, resp.Topics, "path regenerated"); err != nil {
		return nil, err
	}
	s.cache.InvalidateStudent(ctx, studentID)

	return &dto.RegeneratePathResponse{
		Path:      resp.Path,
		Topics:    resp.Topics,
		Preserved: preserved,
		Fresh:     len(resp.Topics) - preserved,
	}, nil
}

// ActivePath returns the current path with its topics.
func (s *CoachService) ActivePath(ctx context.Context, studentID string) (*dto.PathResponse, error) {
	path, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &dto.PathResponse{Path: *path, Topics: topics}, nil
}

// LogSession runs the full logging workflow:
// matcher -> scorer -> ledger -> optimizer -> recommender.
func (s *CoachService) LogSession(ctx context.Context, studentID string, req dto.LogSessionRequest) (*dto.LogSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	defer s.lockStudent(studentID)()

	_, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return nil, err
	}

	session := &models.StudySession{
		StudentID:       studentID,
		RawTopicText:    req.RawTopic,
		DurationMinutes: req.DurationMinutes,
		Mood:            req.Mood,
		Productivity:    req.Productivity,
		Notes:           req.Notes,
		OccurredAt:      req.OccurredAt,
	}
	if err := s.sessions.Append(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record session")
	}

	topic, matched := s.matcher.Match(req.RawTopic, topics)
	analysis := s.scorer.Score(ctx, session, topic, req.UseAI)
	if req.UseAI {
		s.metrics.RecordAICall("session", analysis.Source == models.AnalysisSourceAI)
		if analysis.Source == models.AnalysisSourceFallback {
			s.metrics.RecordFallback("scorer")
		}
	}
	if err := s.sessions.CreateAnalysis(ctx, analysis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record session analysis")
	}

	resp := &dto.LogSessionResponse{
		Session:     *session,
		Analysis:    *analysis,
		MatchStatus: dto.MatchStatusUnmatched,
	}
	if matched {
		resp.MatchStatus = dto.MatchStatusMatched
		record, err := s.ledger.ApplySessionResult(ctx, analysis)
		if err != nil {
			return nil, err
		}
		resp.Progress = record
	}

	schedule, err := s.rebuildSchedule(ctx, studentID, topics, "session logged")
	if err != nil {
		return nil, err
	}
	resp.Schedule = schedule

	rec, err := s.deriveRecommendation(ctx, studentID, topics, req.UseAI)
	if err != nil {
		return nil, err
	}
	resp.Recommendations = rec

	s.cache.InvalidateStudent(ctx, studentID)
	return resp, nil
}

// LogAssessment folds a graded checkpoint into the ledger and refreshes the
// derived views.
func (s *CoachService) LogAssessment(ctx context.Context, studentID string, req dto.LogAssessmentRequest) (*dto.LogAssessmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if !models.ValidAssessmentType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assessment type")
	}

	defer s.lockStudent(studentID)()

	path, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return nil, err
	}
	topic, err := s.paths.Topic(ctx, req.TopicID)
	if err != nil {
		return nil, err
	}
	if topic.PathID != path.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "topic does not belong to the active learning path")
	}

	assessment := &models.Assessment{
		StudentID:  studentID,
		TopicID:    req.TopicID,
		Type:       req.Type,
		ScorePct:   req.ScorePct,
		Notes:      req.Notes,
		OccurredAt: req.OccurredAt,
	}
	if err := s.assessments.Append(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record assessment")
	}

	record, err := s.ledger.ApplyAssessment(ctx, assessment)
	if err != nil {
		return nil, err
	}

	schedule, err := s.rebuildSchedule(ctx, studentID, topics, "assessment logged")
	if err != nil {
		return nil, err
	}
	rec, err := s.deriveRecommendation(ctx, studentID, topics, false)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateStudent(ctx, studentID)
	return &dto.LogAssessmentResponse{
		Assessment:      *assessment,
		Progress:        *record,
		Schedule:        schedule,
		Recommendations: rec,
	}, nil
}

// ManualComplete marks a topic completed regardless of evidence.
func (s *CoachService) ManualComplete(ctx context.Context, studentID, topicID string) (*models.ProgressRecord, error) {
	return s.manualOverride(ctx, studentID, topicID, models.OverrideComplete)
}

// ManualReset regresses a topic to not_started. This is the explicit,
// separately invoked escape hatch; automatic flows never regress.
func (s *CoachService) ManualReset(ctx context.Context, studentID, topicID string) (*models.ProgressRecord, error) {
	return s.manualOverride(ctx, studentID, topicID, models.OverrideReset)
}

func (s *CoachService) manualOverride(ctx context.Context, studentID, topicID string, action models.OverrideAction) (*models.ProgressRecord, error) {
	defer s.lockStudent(studentID)()

	path, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return nil, err
	}
	topic, err := s.paths.Topic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic.PathID != path.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "topic does not belong to the active learning path")
	}

	record, err := s.ledger.Override(ctx, studentID, topicID, action)
	if err != nil {
		return nil, err
	}
	if _, err := s.rebuildSchedule(ctx, studentID, topics, "manual override"); err != nil {
		return nil, err
	}
	s.cache.InvalidateStudent(ctx, studentID)
	return record, nil
}

// Progress returns the derived ledger view, cached when enabled.
func (s *CoachService) Progress(ctx context.Context, studentID string) (*dto.ProgressResponse, error) {
	key := ViewKey("progress", studentID)
	var cached dto.ProgressResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	_, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return nil, err
	}
	view, err := s.ledger.View(ctx, studentID, topics)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, view, 0)
	return view, nil
}

// Schedule returns the latest optimizer snapshot.
func (s *CoachService) Schedule(ctx context.Context, studentID string) (*dto.ScheduleResponse, error) {
	return s.schedule.Current(ctx, studentID)
}

// UpdatePreferences stores new availability and re-optimizes immediately.
func (s *CoachService) UpdatePreferences(ctx context.Context, studentID string, req dto.UpdatePreferencesRequest) (*dto.ScheduleResponse, error) {
	defer s.lockStudent(studentID)()

	if _, err := s.schedule.UpdatePreferences(ctx, studentID, req); err != nil {
		return nil, err
	}
	_, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.rebuildSchedule(ctx, studentID, topics, "preferences changed")
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateStudent(ctx, studentID)
	return schedule, nil
}

// Recommendations returns the recommender's current view, cached when
// enabled. useAI only controls the advisory rationale prose.
func (s *CoachService) Recommendations(ctx context.Context, studentID string, useAI bool) (*models.Recommendation, error) {
	if !useAI {
		key := ViewKey("recommendations", studentID)
		var cached models.Recommendation
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	_, topics, err := s.paths.Active(ctx, studentID)
	if err != nil {
		return nil, err
	}
	rec, err := s.deriveRecommendation(ctx, studentID, topics, useAI)
	if err != nil {
		return nil, err
	}
	if !useAI {
		_ = s.cache.Set(ctx, ViewKey("recommendations", studentID), rec, 0)
	}
	return rec, nil
}

// Sessions lists the raw session log, newest first.
func (s *CoachService) Sessions(ctx context.Context, studentID string) ([]models.StudySession, error) {
	sessions, err := s.sessions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

func (s *CoachService) rebuildSchedule(ctx context.Context, studentID string, topics []models.Topic, trigger string) (*dto.ScheduleResponse, error) {
	statuses, err := s.ledger.StatusMap(ctx, studentID, topics)
	if err != nil {
		return nil, err
	}
	resp, err := s.schedule.Rebuild(ctx, studentID, topics, statuses, trigger)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordScheduleRebuild()
	return resp, nil
}

func (s *CoachService) deriveRecommendation(ctx context.Context, studentID string, topics []models.Topic, useAI bool) (*models.Recommendation, error) {
	statuses, err := s.ledger.StatusMap(ctx, studentID, topics)
	if err != nil {
		return nil, err
	}
	analyses, err := s.sessions.ListAnalysesByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load analysis history")
	}
	assessments, err := s.assessments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment history")
	}

	rec := s.recommender.Derive(topics, statuses, analyses, assessments)
	if useAI {
		s.recommender.Annotate(ctx, &rec)
		s.metrics.RecordAICall("rationale", rec.Rationale != "")
	}
	return &rec, nil
}

func normalizeTopicName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
