package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opsline/training-assign-api/internal/dto"
	"github.com/opsline/training-assign-api/internal/models"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
)

// ConfirmResetLiteral is the typed confirmation required before a
// full-schedule reset executes.
const ConfirmResetLiteral = "DELETE"

type assignmentStore interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Assignment, error)
	ListByTrainee(ctx context.Context, scheduleID, traineeID string) ([]models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	DeleteForTraineeCourseGroup(ctx context.Context, scheduleID, traineeID, courseID, groupID string) (int, error)
	DeleteForTraineeGroup(ctx context.Context, scheduleID, traineeID, groupID string) (int, error)
	DeleteBySchedule(ctx context.Context, scheduleID string) (int, error)
	CountBySchedule(ctx context.Context, scheduleID string) (int, error)
}

type traineeReader interface {
	FindByID(ctx context.Context, id string) (*models.Trainee, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Trainee, error)
}

type snapshotInvalidator interface {
	Invalidate(ctx context.Context, scheduleID string)
}

// AssignmentService executes manual single and bulk assignment requests.
type AssignmentService struct {
	assignments     assignmentStore
	trainees        traineeReader
	catalog         catalogLister
	requirements    requirementDirectory
	categories      snapshotInvalidator
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	defaultCapacity int
}

// NewAssignmentService wires the resolver dependencies.
func NewAssignmentService(
	assignments assignmentStore,
	trainees traineeReader,
	catalog catalogLister,
	requirements requirementDirectory,
	categories snapshotInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	defaultCapacity int,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments:     assignments,
		trainees:        trainees,
		catalog:         catalog,
		requirements:    requirements,
		categories:      categories,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		defaultCapacity: defaultCapacity,
	}
}

// engineState is the in-memory view one operation works against. It is built
// once per operation and owned exclusively by it; every read and local
// reservation during the operation goes through this structure.
type engineState struct {
	index     *SessionIndex
	set       *models.CategorySet
	tracker   *CapacityTracker
	byTrainee map[string][]models.Assignment
}

func (s *AssignmentService) loadState(ctx context.Context, scheduleID string) (*engineState, error) {
	return loadEngineState(ctx, scheduleID, s.catalog, s.trainees, s.requirements, s.assignments, s.defaultCapacity, s.logger)
}

// loadEngineState fetches a schedule's catalog, trainees, requirement map and
// assignments exactly once and reduces them to the operation state.
func loadEngineState(
	ctx context.Context,
	scheduleID string,
	catalog catalogLister,
	trainees traineeReader,
	requirements requirementDirectory,
	assignments assignmentStore,
	defaultCapacity int,
	logger *zap.Logger,
) (*engineState, error) {
	rows, err := catalog.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session catalog")
	}
	roster, err := trainees.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainees")
	}
	requirementMap, err := requirements.MapAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement directory")
	}
	existing, err := assignments.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	index := BuildSessionIndex(rows, defaultCapacity, logger)
	tracker := NewCapacityTracker()
	tracker.Preload(existing)

	byTrainee := make(map[string][]models.Assignment)
	for _, assignment := range existing {
		byTrainee[assignment.TraineeID] = append(byTrainee[assignment.TraineeID], assignment)
	}

	return &engineState{
		index:     index,
		set:       Categorize(roster, requirementMap, index.Courses(), existing),
		tracker:   tracker,
		byTrainee: byTrainee,
	}, nil
}

// AssignOne places a single trainee onto the referenced session.
func (s *AssignmentService) AssignOne(ctx context.Context, scheduleID string, req dto.AssignRequest) (*dto.AssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	trainee, err := s.findTrainee(ctx, req.TraineeID)
	if err != nil {
		return nil, err
	}
	state, err := s.loadState(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	result, err := s.assignTrainee(ctx, scheduleID, state, *trainee, req.TargetID, req.Note)
	if err != nil {
		return nil, err
	}
	if result.Strategy != dto.StrategyNone {
		s.categories.Invalidate(ctx, scheduleID)
	}
	return result, nil
}

// AssignMany places a set of trainees onto the same session reference. One
// trainee's failure never blocks the rest; failures are collected per item.
func (s *AssignmentService) AssignMany(ctx context.Context, scheduleID string, req dto.BulkAssignRequest) (*dto.BulkAssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}
	state, err := s.loadState(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	result := &dto.BulkAssignResult{}
	mutated := false
	for _, traineeID := range req.TraineeIDs {
		trainee, err := s.findTrainee(ctx, traineeID)
		if err != nil {
			result.Failed = append(result.Failed, failureFrom(traineeID, err))
			continue
		}
		item, err := s.assignTrainee(ctx, scheduleID, state, *trainee, req.TargetID, req.Note)
		if err != nil {
			result.Failed = append(result.Failed, failureFrom(traineeID, err))
			continue
		}
		result.Successful = append(result.Successful, *item)
		if item.Strategy != dto.StrategyNone {
			mutated = true
		}
	}

	if mutated {
		s.categories.Invalidate(ctx, scheduleID)
	}
	return result, nil
}

func (s *AssignmentService) findTrainee(ctx context.Context, traineeID string) (*models.Trainee, error) {
	trainee, err := s.trainees.FindByID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("trainee %s not found", traineeID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainee")
	}
	return trainee, nil
}

// assignTrainee runs the per-trainee placement steps against the shared
// operation state: resolve, location gate, same-course conflict resolution,
// strategy selection, commit, counter updates.
func (s *AssignmentService) assignTrainee(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	targetID, note string,
) (*dto.AssignResult, error) {
	target, err := state.index.Resolve(targetID, trainee.Location)
	if err != nil {
		return nil, err
	}
	if trainee.Location != target.Location {
		return nil, appErrors.Clone(appErrors.ErrLocationMismatch,
			fmt.Sprintf("trainee %s is based at %s, session runs at %s", trainee.ID, trainee.Location, target.Location))
	}

	category := state.set.CategoryOf(trainee.ID)
	if category == models.CategoryFullyAssigned {
		// Idempotent: nothing to place, nothing persisted.
		return &dto.AssignResult{TraineeID: trainee.ID, Strategy: dto.StrategyNone}, nil
	}

	removed := 0
	if category == models.CategoryPartiallyAssigned {
		removed, err = s.resolveSameCourseConflicts(ctx, scheduleID, state, trainee, target)
		if err != nil {
			return nil, err
		}
	}

	missing := state.set.Missing[trainee.ID]
	strategy := chooseStrategy(category, missing, target.CourseID, len(state.byTrainee[trainee.ID]) == 0)

	var created []models.Assignment
	switch strategy {
	case dto.StrategyMultiCourse:
		created, err = s.commitMultiCourse(ctx, scheduleID, state, trainee, target, note)
	case dto.StrategySingleCourse:
		created, err = s.commitSingleCourse(ctx, scheduleID, state, trainee, target, note)
	default:
		created, err = s.commitSingleSession(ctx, scheduleID, state, trainee, target, note)
	}
	if err != nil {
		return nil, err
	}

	return &dto.AssignResult{
		TraineeID: trainee.ID,
		Strategy:  strategy,
		Removed:   removed,
		Created:   created,
	}, nil
}

// chooseStrategy classifies the commit per category. Trainees needing every
// schedule course, or partially assigned trainees left with nothing after
// conflict resolution, get a full multi-course placement; trainees missing
// the target's course get a single-course placement covering all its parts;
// everything else commits exactly the dropped session.
func chooseStrategy(category models.Category, missing []string, targetCourseID string, cleared bool) string {
	if category == models.CategoryNeedsAll ||
		(category == models.CategoryPartiallyAssigned && cleared) {
		return dto.StrategyMultiCourse
	}
	for _, courseID := range missing {
		if courseID == targetCourseID {
			return dto.StrategySingleCourse
		}
	}
	return dto.StrategySingleSession
}

// resolveSameCourseConflicts deletes the trainee's assignments for the
// target's course held at a different group within the same location.
// Assignments for other courses are untouched.
func (s *AssignmentService) resolveSameCourseConflicts(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	target models.Session,
) (int, error) {
	targetGroup := target.GroupID()
	conflictGroups := make(map[string]bool)
	for _, existing := range state.byTrainee[trainee.ID] {
		if existing.CourseID != target.CourseID || existing.Location != target.Location {
			continue
		}
		if existing.GroupID != targetGroup {
			conflictGroups[existing.GroupID] = true
		}
	}

	removed := 0
	for groupID := range conflictGroups {
		count, err := s.assignments.DeleteForTraineeCourseGroup(ctx, scheduleID, trainee.ID, target.CourseID, groupID)
		if err != nil {
			return removed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve assignment conflict")
		}
		removed += count
		s.metrics.IncConflictResolved()
		s.dropLocalAssignments(state, trainee.ID, target.CourseID, groupID)
	}
	return removed, nil
}

// dropLocalAssignments mirrors a deletion into the operation state, releasing
// the group counter when the trainee no longer holds anything there.
func (s *AssignmentService) dropLocalAssignments(state *engineState, traineeID, courseID, groupID string) {
	var kept []models.Assignment
	stillInGroup := false
	for _, existing := range state.byTrainee[traineeID] {
		if existing.CourseID == courseID && existing.GroupID == groupID {
			continue
		}
		if existing.GroupID == groupID {
			stillInGroup = true
		}
		kept = append(kept, existing)
	}
	state.byTrainee[traineeID] = kept

	if !stillInGroup {
		if key, ok := parseGroupID(groupID); ok {
			state.tracker.Release(key.Location, key.Group, traineeID)
		}
	}
}

func (s *AssignmentService) commitMultiCourse(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	target models.Session,
	note string,
) ([]models.Assignment, error) {
	ceiling := state.index.GroupCeiling(target.Location, target.GroupNumber)
	if !state.tracker.HasCapacity(target.Location, target.GroupNumber, ceiling, trainee.ID) {
		s.metrics.IncCapacityRejected()
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("group %d at %s is at its ceiling of %d", target.GroupNumber, target.Location, ceiling))
	}

	sessions := state.index.GroupSessions(target.Location, target.GroupNumber, target.FunctionalArea)
	byCourse, order := SessionsByCourse(sessions)

	var created []models.Assignment
	for _, courseID := range order {
		session := byCourse[courseID][0]
		record, err := s.insert(ctx, scheduleID, state, trainee, session, models.LevelGroup, note)
		if err != nil {
			// No rollback: committed courses stay, the categorizer reports
			// the trainee partially assigned on the next pass.
			return created, err
		}
		created = append(created, *record)
	}
	s.finishCommit(state, trainee.ID, target.Location, target.GroupNumber, created)
	return created, nil
}

func (s *AssignmentService) commitSingleCourse(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	target models.Session,
	note string,
) ([]models.Assignment, error) {
	ceiling := state.index.GroupCeiling(target.Location, target.GroupNumber)
	if !state.tracker.HasCapacity(target.Location, target.GroupNumber, ceiling, trainee.ID) {
		s.metrics.IncCapacityRejected()
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("group %d at %s is at its ceiling of %d", target.GroupNumber, target.Location, ceiling))
	}

	parts := state.index.CourseSessionsInGroup(target.CourseID, target.Location, target.GroupNumber)
	for _, session := range parts {
		// The tracker keys sessions by stable id, the same key the inserts
		// reserve under.
		if !state.tracker.SessionHasCapacity(StableID(session), session.Capacity, trainee.ID) {
			s.metrics.IncCapacityRejected()
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
				fmt.Sprintf("session %s is at its ceiling of %d", session.ID, session.Capacity))
		}
	}

	var created []models.Assignment
	for _, session := range parts {
		record, err := s.insert(ctx, scheduleID, state, trainee, session, models.LevelCourse, note)
		if err != nil {
			return created, err
		}
		created = append(created, *record)
	}
	s.finishCommit(state, trainee.ID, target.Location, target.GroupNumber, created)
	return created, nil
}

func (s *AssignmentService) commitSingleSession(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	target models.Session,
	note string,
) ([]models.Assignment, error) {
	ceiling := state.index.GroupCeiling(target.Location, target.GroupNumber)
	if !state.tracker.HasCapacity(target.Location, target.GroupNumber, ceiling, trainee.ID) ||
		!state.tracker.SessionHasCapacity(StableID(target), target.Capacity, trainee.ID) {
		s.metrics.IncCapacityRejected()
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("no seat left on session %s", target.ID))
	}

	record, err := s.insert(ctx, scheduleID, state, trainee, target, models.LevelSession, note)
	if err != nil {
		return nil, err
	}
	created := []models.Assignment{*record}
	s.finishCommit(state, trainee.ID, target.Location, target.GroupNumber, created)
	return created, nil
}

func (s *AssignmentService) insert(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	session models.Session,
	level models.AssignmentLevel,
	note string,
) (*models.Assignment, error) {
	record := &models.Assignment{
		ScheduleID:     scheduleID,
		TraineeID:      trainee.ID,
		Level:          level,
		CourseID:       session.CourseID,
		SessionID:      StableID(session),
		GroupID:        session.GroupID(),
		Location:       session.Location,
		FunctionalArea: session.FunctionalArea,
		Type:           models.AssignmentTypeManual,
		Note:           note,
	}
	if err := s.assignments.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignment")
	}
	state.tracker.ReserveSession(record.SessionID, trainee.ID)
	s.metrics.IncAssignmentCreated(string(models.AssignmentTypeManual))
	return record, nil
}

// finishCommit updates the shared counters so later trainees in the same
// bulk run observe this placement without a re-fetch.
func (s *AssignmentService) finishCommit(state *engineState, traineeID, location string, groupNumber int, created []models.Assignment) {
	if len(created) == 0 {
		return
	}
	state.tracker.Reserve(location, groupNumber, traineeID)
	state.byTrainee[traineeID] = append(state.byTrainee[traineeID], created...)
}

// RemoveFromGroup detaches a trainee from the whole group the reference
// resolves to, across every course sharing it.
func (s *AssignmentService) RemoveFromGroup(ctx context.Context, scheduleID string, req dto.RemoveRequest) (*dto.RemoveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid removal payload")
	}
	trainee, target, err := s.resolveForRemoval(ctx, scheduleID, req)
	if err != nil {
		return nil, err
	}
	removed, err := s.assignments.DeleteForTraineeGroup(ctx, scheduleID, trainee.ID, target.GroupID())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove group assignments")
	}
	if removed > 0 {
		s.categories.Invalidate(ctx, scheduleID)
	}
	return &dto.RemoveResult{TraineeID: trainee.ID, Removed: removed}, nil
}

// RemoveFromCourse detaches a trainee from one course at the resolved group.
// The trainee's assignments for every other course are untouched.
func (s *AssignmentService) RemoveFromCourse(ctx context.Context, scheduleID string, req dto.RemoveRequest) (*dto.RemoveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid removal payload")
	}
	trainee, target, err := s.resolveForRemoval(ctx, scheduleID, req)
	if err != nil {
		return nil, err
	}
	removed, err := s.assignments.DeleteForTraineeCourseGroup(ctx, scheduleID, trainee.ID, target.CourseID, target.GroupID())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove course assignments")
	}
	if removed > 0 {
		s.categories.Invalidate(ctx, scheduleID)
	}
	return &dto.RemoveResult{TraineeID: trainee.ID, Removed: removed}, nil
}

func (s *AssignmentService) resolveForRemoval(ctx context.Context, scheduleID string, req dto.RemoveRequest) (*models.Trainee, models.Session, error) {
	trainee, err := s.findTrainee(ctx, req.TraineeID)
	if err != nil {
		return nil, models.Session{}, err
	}
	rows, err := s.catalog.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, models.Session{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session catalog")
	}
	index := BuildSessionIndex(rows, s.defaultCapacity, s.logger)
	target, err := index.Resolve(req.TargetID, trainee.Location)
	if err != nil {
		return nil, models.Session{}, err
	}
	return trainee, target, nil
}

// ListForTrainee returns a trainee's assignment records within a schedule.
func (s *AssignmentService) ListForTrainee(ctx context.Context, scheduleID, traineeID string) ([]models.Assignment, error) {
	if _, err := s.findTrainee(ctx, traineeID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByTrainee(ctx, scheduleID, traineeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainee assignments")
	}
	return assignments, nil
}

// CountForSchedule returns the number of assignment rows a reset would
// delete, for the caller's confirmation display.
func (s *AssignmentService) CountForSchedule(ctx context.Context, scheduleID string) (int, error) {
	count, err := s.assignments.CountBySchedule(ctx, scheduleID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}
	return count, nil
}

// RemoveAllForSchedule clears every assignment of a schedule. The confirm
// token must equal the fixed literal or nothing is deleted.
func (s *AssignmentService) RemoveAllForSchedule(ctx context.Context, scheduleID string, req dto.ResetScheduleRequest) (*dto.ResetScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}
	if req.Confirm != ConfirmResetLiteral {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("confirmation token must equal %q", ConfirmResetLiteral))
	}
	removed, err := s.assignments.DeleteBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset schedule assignments")
	}
	s.logger.Info("schedule assignments reset",
		zap.String("schedule_id", scheduleID), zap.Int("removed", removed))
	s.categories.Invalidate(ctx, scheduleID)
	return &dto.ResetScheduleResult{ScheduleID: scheduleID, Removed: removed}, nil
}

func failureFrom(traineeID string, err error) dto.AssignmentFailure {
	appErr := appErrors.FromError(err)
	return dto.AssignmentFailure{
		TraineeID: traineeID,
		Code:      appErr.Code,
		Message:   appErr.Message,
	}
}
