package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/models"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
)

type progressRepository interface {
	Upsert(ctx context.Context, record *models.ProgressRecord) error
	ListByStudent(ctx context.Context, studentID string) ([]models.ProgressRecord, error)
	AppendOverride(ctx context.Context, override *models.ProgressOverride) error
	ListOverrides(ctx context.Context, studentID string) ([]models.ProgressOverride, error)
}

type analysisReader interface {
	ListAnalysesByStudent(ctx context.Context, studentID string) ([]models.SessionAnalysis, error)
}

type assessmentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Assessment, error)
}

// ProgressService is the ledger: the authoritative per-topic state machine.
// Status is always recomputed as a pure function of the full evidence history
// (analyses + assessments + overrides), never mutated incrementally, which
// makes re-applying any input naturally idempotent.
type ProgressService struct {
	repo        progressRepository
	analyses    analysisReader
	assessments assessmentReader
	threshold   int
	logger      *zap.Logger
}

// NewProgressService instantiates ProgressService. A non-positive threshold
// falls back to 70, the score at which evidence counts as completion.
func NewProgressService(repo progressRepository, analyses analysisReader, assessments assessmentReader, threshold int, logger *zap.Logger) *ProgressService {
	if threshold <= 0 {
		threshold = 70
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		repo:        repo,
		analyses:    analyses,
		assessments: assessments,
		threshold:   threshold,
		logger:      logger,
	}
}

// ledgerEvent is one piece of evidence in chronological replay order.
type ledgerEvent struct {
	at     time.Time
	action models.OverrideAction
	score  int
	source models.CompletionSource
}

// deriveStatus replays a topic's evidence in order. Automatic transitions
// only ever advance; an override "reset" acts as a tombstone, returning the
// topic to not_started so later evidence may legitimately re-advance it.
func deriveStatus(topicID string, analyses []models.SessionAnalysis, assessments []models.Assessment, overrides []models.ProgressOverride, threshold int) (models.TopicStatus, models.CompletionSource) {
	events := make([]ledgerEvent, 0, len(analyses)+len(assessments)+len(overrides))
	for _, a := range analyses {
		if a.MatchedTopicID == nil || *a.MatchedTopicID != topicID {
			continue
		}
		events = append(events, ledgerEvent{at: a.CreatedAt, score: a.EffectivenessScore, source: models.SourceSession})
	}
	for _, a := range assessments {
		if a.TopicID != topicID {
			continue
		}
		events = append(events, ledgerEvent{at: a.OccurredAt, score: a.ScorePct, source: models.SourceAssessment})
	}
	for _, o := range overrides {
		if o.TopicID != topicID {
			continue
		}
		events = append(events, ledgerEvent{at: o.CreatedAt, action: o.Action, source: models.SourceManual})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })

	status := models.StatusNotStarted
	var source models.CompletionSource
	for _, ev := range events {
		switch {
		case ev.action == models.OverrideReset:
			status = models.StatusNotStarted
			source = ""
		case ev.action == models.OverrideComplete:
			status = models.StatusCompleted
			source = models.SourceManual
		case ev.action == models.OverrideStart:
			if status == models.StatusNotStarted {
				status = models.StatusInProgress
				source = ""
			}
		case status == models.StatusCompleted:
			// evidence never regresses a completed topic
		case ev.score >= threshold:
			status = models.StatusCompleted
			source = ev.source
		default:
			status = models.StatusInProgress
		}
	}
	return status, source
}

// ApplySessionResult folds a session verdict into the ledger. Analyses
// without a matched topic produce no mutation and return nil.
func (s *ProgressService) ApplySessionResult(ctx context.Context, analysis *models.SessionAnalysis) (*models.ProgressRecord, error) {
	if analysis.MatchedTopicID == nil {
		return nil, nil
	}
	return s.recompute(ctx, analysis.StudentID, *analysis.MatchedTopicID)
}

// ApplyAssessment folds an assessment into the ledger.
func (s *ProgressService) ApplyAssessment(ctx context.Context, assessment *models.Assessment) (*models.ProgressRecord, error) {
	return s.recompute(ctx, assessment.StudentID, assessment.TopicID)
}

// Override records a manual ledger action and returns the resulting state.
// Starting a completed topic is rejected; regression requires an explicit
// reset, which is the separately authorized escape hatch.
func (s *ProgressService) Override(ctx context.Context, studentID, topicID string, action models.OverrideAction) (*models.ProgressRecord, error) {
	if action == models.OverrideStart {
		current, _, err := s.deriveFresh(ctx, studentID, topicID)
		if err != nil {
			return nil, err
		}
		if current == models.StatusCompleted {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "completed topics can only be reset, not restarted")
		}
	}
	override := &models.ProgressOverride{
		StudentID: studentID,
		TopicID:   topicID,
		Action:    action,
	}
	if err := s.repo.AppendOverride(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record manual override")
	}
	return s.recompute(ctx, studentID, topicID)
}

// StatusMap derives the current status of every topic from fresh history.
func (s *ProgressService) StatusMap(ctx context.Context, studentID string, topics []models.Topic) (map[string]models.TopicStatus, error) {
	analyses, assessments, overrides, err := s.loadHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]models.TopicStatus, len(topics))
	for _, topic := range topics {
		status, _ := deriveStatus(topic.ID, analyses, assessments, overrides, s.threshold)
		statuses[topic.ID] = status
	}
	return statuses, nil
}

// View joins the topic list with derived ledger state.
func (s *ProgressService) View(ctx context.Context, studentID string, topics []models.Topic) (*dto.ProgressResponse, error) {
	analyses, assessments, overrides, err := s.loadHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProgressResponse{
		Topics:     make([]dto.ProgressTopicView, 0, len(topics)),
		TotalCount: len(topics),
	}
	for _, topic := range topics {
		status, source := deriveStatus(topic.ID, analyses, assessments, overrides, s.threshold)
		if status == models.StatusCompleted {
			resp.CompletedCount++
		}
		resp.Topics = append(resp.Topics, dto.ProgressTopicView{
			Topic: topic,
			Progress: models.ProgressRecord{
				StudentID:        studentID,
				TopicID:          topic.ID,
				Status:           status,
				CompletionSource: source,
			},
		})
	}
	return resp, nil
}

// CarryOver copies a previous status onto a fresh topic id after path
// regeneration, recorded as a manual action so replay stays consistent.
func (s *ProgressService) CarryOver(ctx context.Context, studentID, topicID string, status models.TopicStatus) error {
	var action models.OverrideAction
	switch status {
	case models.StatusCompleted:
		action = models.OverrideComplete
	case models.StatusInProgress:
		action = models.OverrideStart
	default:
		return nil
	}
	override := &models.ProgressOverride{StudentID: studentID, TopicID: topicID, Action: action}
	if err := s.repo.AppendOverride(ctx, override); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to carry over progress")
	}
	_, err := s.recompute(ctx, studentID, topicID)
	return err
}

func (s *ProgressService) loadHistory(ctx context.Context, studentID string) ([]models.SessionAnalysis, []models.Assessment, []models.ProgressOverride, error) {
	analyses, err := s.analyses.ListAnalysesByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session history")
	}
	assessments, err := s.assessments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment history")
	}
	overrides, err := s.repo.ListOverrides(ctx, studentID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override history")
	}
	return analyses, assessments, overrides, nil
}

func (s *ProgressService) deriveFresh(ctx context.Context, studentID, topicID string) (models.TopicStatus, models.CompletionSource, error) {
	analyses, assessments, overrides, err := s.loadHistory(ctx, studentID)
	if err != nil {
		return "", "", err
	}
	status, source := deriveStatus(topicID, analyses, assessments, overrides, s.threshold)
	return status, source, nil
}

func (s *ProgressService) recompute(ctx context.Context, studentID, topicID string) (*models.ProgressRecord, error) {
	status, source, err := s.deriveFresh(ctx, studentID, topicID)
	if err != nil {
		return nil, err
	}
	record := &models.ProgressRecord{
		StudentID:        studentID,
		TopicID:          topicID,
		Status:           status,
		CompletionSource: source,
		LastUpdated:      time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist progress record")
	}
	return record, nil
}
