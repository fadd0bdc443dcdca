package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/internal/dto"
	"github.com/noah-isme/learn-coach-api/internal/models"
	appErrors "github.com/noah-isme/learn-coach-api/pkg/errors"
)

type scheduleRepository interface {
	GetPreferences(ctx context.Context, studentID string) (*models.SchedulePreferences, error)
	UpsertPreferences(ctx context.Context, prefs *models.SchedulePreferences) error
	ReplaceSnapshot(ctx context.Context, snapshot *models.ScheduleSnapshot, blocks []models.ScheduleBlock) error
	GetLatestSnapshot(ctx context.Context, studentID string) (*models.ScheduleSnapshot, error)
	ListBlocks(ctx context.Context, snapshotID string) ([]models.ScheduleBlock, error)
}

// ScheduleService runs the weekly optimizer and manages preferences. The
// optimizer itself is a pure function; given identical preferences and
// progress it emits an identical block sequence.
type ScheduleService struct {
	repo        scheduleRepository
	validator   *validator.Validate
	logger      *zap.Logger
	slotMinutes int
}

// NewScheduleService instantiates ScheduleService. slotMinutes is the nominal
// length of one grid cell; non-positive values fall back to 60.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, slotMinutes int, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if slotMinutes <= 0 {
		slotMinutes = 60
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger, slotMinutes: slotMinutes}
}

// UpdatePreferences validates and stores the availability grid, without
// rebuilding the schedule; the orchestrator triggers that separately.
func (s *ScheduleService) UpdatePreferences(ctx context.Context, studentID string, req dto.UpdatePreferencesRequest) (*models.SchedulePreferences, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule preferences")
	}
	days := make([]string, 0, len(req.AvailableDays))
	for _, day := range req.AvailableDays {
		normalized := strings.ToUpper(strings.TrimSpace(day))
		if models.DayRank(normalized) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", day))
		}
		days = append(days, normalized)
	}
	for _, slot := range req.TimeSlots {
		if !models.ValidTimeSlot(slot) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown time slot %q", slot))
		}
	}

	daysJSON, err := json.Marshal(days)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode preferences")
	}
	slotsJSON, err := json.Marshal(req.TimeSlots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode preferences")
	}

	prefs := &models.SchedulePreferences{
		StudentID:     studentID,
		AvailableDays: types.JSONText(daysJSON),
		TimeSlots:     types.JSONText(slotsJSON),
		WeeklyHours:   req.WeeklyHours,
	}
	if err := s.repo.UpsertPreferences(ctx, prefs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule preferences")
	}
	return prefs, nil
}

// Rebuild runs the optimizer against fresh inputs and atomically replaces the
// stored snapshot. An infeasible grid is not an error: the snapshot is empty
// and its reason explains why.
func (s *ScheduleService) Rebuild(ctx context.Context, studentID string, topics []models.Topic, statuses map[string]models.TopicStatus, trigger string) (*dto.ScheduleResponse, error) {
	prefs, err := s.repo.GetPreferences(ctx, studentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule preferences")
		}
		prefs = nil
	}

	blocks, reason := Optimize(prefs, topics, statuses, s.slotMinutes)
	if reason == "" {
		reason = trigger
	}

	snapshot := &models.ScheduleSnapshot{StudentID: studentID, Reason: reason}
	if err := s.repo.ReplaceSnapshot(ctx, snapshot, blocks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace schedule snapshot")
	}

	return buildScheduleResponse(snapshot, blocks), nil
}

// Current returns the latest stored snapshot, or an empty schedule when the
// optimizer has never run for this student.
func (s *ScheduleService) Current(ctx context.Context, studentID string) (*dto.ScheduleResponse, error) {
	snapshot, err := s.repo.GetLatestSnapshot(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.ScheduleResponse{Blocks: []models.ScheduleBlock{}, Reason: "no schedule generated yet"}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	blocks, err := s.repo.ListBlocks(ctx, snapshot.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule blocks")
	}
	return buildScheduleResponse(snapshot, blocks), nil
}

func buildScheduleResponse(snapshot *models.ScheduleSnapshot, blocks []models.ScheduleBlock) *dto.ScheduleResponse {
	total := 0
	for _, b := range blocks {
		total += b.PlannedMinutes
	}
	if blocks == nil {
		blocks = []models.ScheduleBlock{}
	}
	return &dto.ScheduleResponse{
		Version:   snapshot.Version,
		Reason:    snapshot.Reason,
		Blocks:    blocks,
		TotalMins: total,
		CreatedAt: snapshot.CreatedAt,
	}
}

// gridCell is one assignable (day, slot) position.
type gridCell struct {
	day  string
	slot models.TimeSlot
}

// Optimize is the greedy bin-packer. Topics still pending arrive in
// curriculum order and are poured into the availability grid under the weekly
// budget, one topic per cell, rotating time-of-day buckets across days so a
// truncated week never starves a single bucket. Overflow beyond the budget is
// silently deferred to the next run.
func Optimize(prefs *models.SchedulePreferences, topics []models.Topic, statuses map[string]models.TopicStatus, slotMinutes int) ([]models.ScheduleBlock, string) {
	if prefs == nil {
		return nil, "no schedule preferences set"
	}
	days := decodeDays(prefs.AvailableDays)
	slots := decodeSlots(prefs.TimeSlots)
	budget := int(prefs.WeeklyHours * 60)

	switch {
	case budget <= 0:
		return nil, "weekly hour budget is zero"
	case len(days) == 0 || len(slots) == 0:
		return nil, "no available days or time slots"
	}

	pending := pendingTopics(topics, statuses)
	if len(pending) == 0 {
		return nil, "no pending topics"
	}

	cells := make([]gridCell, 0, len(days)*len(slots))
	for round := 0; round < len(slots); round++ {
		for dayIdx, day := range days {
			cells = append(cells, gridCell{day: day, slot: slots[(round+dayIdx)%len(slots)]})
		}
	}

	blocks := make([]models.ScheduleBlock, 0)
	cellIdx := 0
	for _, topic := range pending {
		remaining := int(topic.EstimatedHours * 60)
		for remaining > 0 && budget > 0 && cellIdx < len(cells) {
			planned := slotMinutes
			if remaining < planned {
				planned = remaining
			}
			if budget < planned {
				planned = budget
			}
			cell := cells[cellIdx]
			blocks = append(blocks, models.ScheduleBlock{
				Day:            cell.day,
				Slot:           cell.slot,
				TopicID:        topic.ID,
				PlannedMinutes: planned,
				Position:       len(blocks),
			})
			remaining -= planned
			budget -= planned
			cellIdx++
		}
		if budget <= 0 || cellIdx >= len(cells) {
			break
		}
	}
	return blocks, ""
}

// pendingTopics filters out completed topics and fixes the packing order:
// curriculum order first, then smallest estimate (finish near-done work
// before opening new topics), then name for full determinism.
func pendingTopics(topics []models.Topic, statuses map[string]models.TopicStatus) []models.Topic {
	pending := make([]models.Topic, 0, len(topics))
	for _, topic := range topics {
		if statuses[topic.ID] == models.StatusCompleted {
			continue
		}
		if topic.EstimatedHours <= 0 {
			continue
		}
		pending = append(pending, topic)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].OrderIndex != pending[j].OrderIndex {
			return pending[i].OrderIndex < pending[j].OrderIndex
		}
		if pending[i].EstimatedHours != pending[j].EstimatedHours {
			return pending[i].EstimatedHours < pending[j].EstimatedHours
		}
		return pending[i].Name < pending[j].Name
	})
	return pending
}

func decodeDays(raw types.JSONText) []string {
	var days []string
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil
	}
	valid := make([]string, 0, len(days))
	for _, day := range days {
		normalized := strings.ToUpper(strings.TrimSpace(day))
		if models.DayRank(normalized) > 0 {
			valid = append(valid, normalized)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return models.DayRank(valid[i]) < models.DayRank(valid[j]) })
	return valid
}

func decodeSlots(raw types.JSONText) []models.TimeSlot {
	var slots []models.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil
	}
	valid := make([]models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if models.ValidTimeSlot(slot) {
			valid = append(valid, slot)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return models.SlotRank(valid[i]) < models.SlotRank(valid[j]) })
	return valid
}
