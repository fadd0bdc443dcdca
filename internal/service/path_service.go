package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/internal/ai"
	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/models"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
)

type topicRepository interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	CreatePath(ctx context.Context, exec sqlx.ExtContext, path *models.LearningPath) error
	BulkCreateTopics(ctx context.Context, exec sqlx.ExtContext, topics []models.Topic) error
	GetActivePath(ctx context.Context, studentID string) (*models.LearningPath, error)
	ListTopicsByPath(ctx context.Context, pathID string) ([]models.Topic, error)
	FindTopicByID(ctx context.Context, id string) (*models.Topic, error)
}

// PathService builds learning paths. The AI collaborator proposes the
// curriculum when available; otherwise a deterministic three-topic default is
// derived from the goal, so path creation never depends on AI availability.
type PathService struct {
	repo      topicRepository
	client    ai.Client
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPathService instantiates PathService.
func NewPathService(repo topicRepository, client ai.Client, validate *validator.Validate, logger *zap.Logger) *PathService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PathService{repo: repo, client: client, validator: validate, logger: logger}
}

// pathVerdict is the schema expected from the collaborator.
type pathVerdict struct {
	Topics []struct {
		Name           string  `json:"name"`
		Description    string  `json:"description"`
		EstimatedHours float64 `json:"estimated_hours"`
	} `json:"topics"`
	CurrentStage string `json:"current_stage"`
}

func (v pathVerdict) valid() bool {
	if len(v.Topics) < 1 || len(v.Topics) > 10 {
		return false
	}
	for _, t := range v.Topics {
		if strings.TrimSpace(t.Name) == "" || t.EstimatedHours <= 0 || t.EstimatedHours > 40 {
			return false
		}
	}
	return true
}

// Generate creates and persists a fresh path with its ordered topics.
func (s *PathService) Generate(ctx context.Context, studentID string, req dto.CreatePathRequest) (*dto.PathResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid learning path request")
	}

	path := &models.LearningPath{StudentID: studentID, Goal: req.Goal}
	topics := s.proposeTopics(ctx, path, req)

	tx, err := s.repo.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start path creation")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.repo.CreatePath(ctx, tx, path); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create learning path")
	}
	for i := range topics {
		topics[i].PathID = path.ID
	}
	if err := s.repo.BulkCreateTopics(ctx, tx, topics); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create topics")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit learning path")
	}

	return &dto.PathResponse{Path: *path, Topics: topics}, nil
}

// Active returns the current path and its topics.
func (s *PathService) Active(ctx context.Context, studentID string) (*models.LearningPath, []models.Topic, error) {
	path, err := s.repo.GetActivePath(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no learning path yet, create one first")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learning path")
	}
	topics, err := s.repo.ListTopicsByPath(ctx, path.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topics")
	}
	return path, topics, nil
}

// Topic returns a single topic row.
func (s *PathService) Topic(ctx context.Context, id string) (*models.Topic, error) {
	topic, err := s.repo.FindTopicByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "topic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic")
	}
	return topic, nil
}

// proposeTopics asks the collaborator for a curriculum, falling back to the
// deterministic default on any failure or schema violation.
func (s *PathService) proposeTopics(ctx context.Context, path *models.LearningPath, req dto.CreatePathRequest) []models.Topic {
	if s.client != nil && s.client.Enabled() {
		system, prompt := ai.PathPrompt(req.Goal, req.Focus)
		raw, err := s.client.Generate(ctx, system, prompt)
		if err == nil {
			var verdict pathVerdict
			if jsonErr := json.Unmarshal(raw, &verdict); jsonErr == nil && verdict.valid() {
				path.Source = models.PathSourceAI
				path.CurrentStage = verdict.CurrentStage
				topics := make([]models.Topic, 0, len(verdict.Topics))
				for i, t := range verdict.Topics {
					topics = append(topics, models.Topic{
						Name:           strings.TrimSpace(t.Name),
						Description:    t.Description,
						OrderIndex:     i + 1,
						EstimatedHours: t.EstimatedHours,
					})
				}
				return topics
			}
			s.logger.Warn("ai path verdict failed validation, using default topics",
				zap.String("student_id", path.StudentID))
		} else {
			s.logger.Warn("ai path generation failed, using default topics",
				zap.String("student_id", path.StudentID), zap.Error(err))
		}
	}

	path.Source = models.PathSourceFallback
	path.CurrentStage = "foundations"
	return DefaultTopics(req.Goal)
}

// DefaultTopics is the deterministic curriculum for a goal when no AI
// proposal is available.
func DefaultTopics(goal string) []models.Topic {
	goal = strings.TrimSpace(goal)
	return []models.Topic{
		{Name: fmt.Sprintf("Introduction to %s", goal), Description: fmt.Sprintf("Core concepts and terminology of %s.", goal), OrderIndex: 1, EstimatedHours: 3},
		{Name: fmt.Sprintf("%s Fundamentals", goal), Description: fmt.Sprintf("Working through the fundamentals of %s.", goal), OrderIndex: 2, EstimatedHours: 5},
		{Name: fmt.Sprintf("Practical %s", goal), Description: fmt.Sprintf("Hands-on practice applying %s.", goal), OrderIndex: 3, EstimatedHours: 4},
	}
}
