package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opsline/training-assign-api/internal/dto"
	"github.com/opsline/training-assign-api/internal/models"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
)

type trainerStore interface {
	FindByID(ctx context.Context, id string) (*models.Trainer, error)
	BulkCreateSessionAssignments(ctx context.Context, assignments []models.TrainerSessionAssignment) ([]models.TrainerSessionAssignment, error)
	ListSessionAssignments(ctx context.Context, trainerID string) ([]models.TrainerSessionAssignment, error)
}

// TrainerService commits a trainer to a selected set of sessions in one call.
// Overlapping time windows among the selection are reported as warnings, not
// rejections.
type TrainerService struct {
	trainers        trainerStore
	catalog         catalogLister
	validator       *validator.Validate
	logger          *zap.Logger
	defaultCapacity int
}

// NewTrainerService wires the trainer assignment dependencies.
func NewTrainerService(trainers trainerStore, catalog catalogLister, validate *validator.Validate, logger *zap.Logger, defaultCapacity int) *TrainerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainerService{
		trainers:        trainers,
		catalog:         catalog,
		validator:       validate,
		logger:          logger,
		defaultCapacity: defaultCapacity,
	}
}

// AssignSessions commits the trainer to every referenced session. Any
// unresolvable session id aborts the whole call before a single insert.
func (s *TrainerService) AssignSessions(ctx context.Context, trainerID string, req dto.TrainerAssignRequest) (*dto.TrainerAssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainer assignment payload")
	}
	trainer, err := s.trainers.FindByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("trainer %s not found", trainerID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}

	rows, err := s.catalog.ListBySchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session catalog")
	}
	index := BuildSessionIndex(rows, s.defaultCapacity, s.logger)

	sessions := make([]models.Session, 0, len(req.SessionIDs))
	for _, sessionID := range req.SessionIDs {
		session, ok := index.ByRowID(sessionID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %s not found on schedule %s", sessionID, req.ScheduleID))
		}
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartsAt.Before(sessions[j].StartsAt) })

	conflicts := detectOverlaps(sessions)
	if len(conflicts) > 0 {
		s.logger.Warn("trainer selection has overlapping sessions",
			zap.String("trainer_id", trainer.ID),
			zap.String("schedule_id", req.ScheduleID),
			zap.Int("conflicts", len(conflicts)))
	}

	assignments := make([]models.TrainerSessionAssignment, 0, len(sessions))
	for _, session := range sessions {
		assignments = append(assignments, models.TrainerSessionAssignment{
			TrainerID:  trainer.ID,
			ScheduleID: req.ScheduleID,
			SessionID:  session.ID,
			StartsAt:   session.StartsAt,
			EndsAt:     session.EndsAt,
		})
	}

	applied, err := s.trainers.BulkCreateSessionAssignments(ctx, assignments)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist trainer assignments")
	}

	return &dto.TrainerAssignResult{Conflicts: conflicts, Applied: applied}, nil
}

// ListSessions returns the trainer's committed sessions ordered by start.
func (s *TrainerService) ListSessions(ctx context.Context, trainerID string) ([]models.TrainerSessionAssignment, error) {
	assignments, err := s.trainers.ListSessionAssignments(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer sessions")
	}
	return assignments, nil
}

// detectOverlaps compares start-ordered sessions pairwise and records every
// pair whose windows intersect.
func detectOverlaps(sessions []models.Session) []models.SessionOverlap {
	var overlaps []models.SessionOverlap
	for i := 0; i < len(sessions); i++ {
		for j := i + 1; j < len(sessions); j++ {
			first, second := sessions[i], sessions[j]
			if !second.StartsAt.Before(first.EndsAt) {
				break
			}
			end := first.EndsAt
			if second.EndsAt.Before(end) {
				end = second.EndsAt
			}
			overlaps = append(overlaps, models.SessionOverlap{
				FirstSessionID:  first.ID,
				SecondSessionID: second.ID,
				OverlapStart:    second.StartsAt,
				OverlapEnd:      end,
			})
		}
	}
	return overlaps
}
