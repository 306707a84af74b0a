package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsline/training-assign-api/internal/dto"
	"github.com/opsline/training-assign-api/internal/models"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
	"github.com/opsline/training-assign-api/pkg/jobs"
)

// Planner failure codes.
const (
	failureNoCapacity  = "NO_CAPACITY"
	failurePersistence = "PERSISTENCE_ERROR"
)

// Planner tiers, in priority order.
const (
	tierNeedsAll   = "needs_all"
	tierNeedsSome  = "needs_some"
	tierUnassigned = "unassigned"
)

// runStore keeps recent planner results in memory so callers can poll a run
// by id. Entries expire after the configured TTL; expired entries are pruned
// lazily on write.
type runStore struct {
	mu   sync.RWMutex
	ttl  time.Duration
	runs map[string]storedRun
}

type storedRun struct {
	result    *dto.AutoAssignResult
	expiresAt time.Time
}

func newRunStore(ttl time.Duration) *runStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &runStore{ttl: ttl, runs: make(map[string]storedRun)}
}

func (s *runStore) Put(result *dto.AutoAssignResult) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, run := range s.runs {
		if now.After(run.expiresAt) {
			delete(s.runs, id)
		}
	}
	s.runs[result.RunID] = storedRun{result: result, expiresAt: now.Add(s.ttl)}
}

func (s *runStore) Get(runID string) (*dto.AutoAssignResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok || time.Now().After(run.expiresAt) {
		return nil, false
	}
	return run.result, true
}

type autoAssignJob struct {
	RunID      string
	ScheduleID string
}

// AutoAssignService plans bulk placements for every trainee a schedule still
// owes something to, in priority tiers. A run loads its inputs once and works
// entirely against in-memory counters.
type AutoAssignService struct {
	assignments  assignmentStore
	trainees     traineeReader
	catalog      catalogLister
	requirements requirementDirectory
	categories   snapshotInvalidator
	metrics      *MetricsService
	logger       *zap.Logger

	runs            *runStore
	queue           *jobs.Queue
	defaultCapacity int
	maxGroupNumber  int
}

// NewAutoAssignService wires the planner dependencies. The background queue
// is attached separately because its handler is this service.
func NewAutoAssignService(
	assignments assignmentStore,
	trainees traineeReader,
	catalog catalogLister,
	requirements requirementDirectory,
	categories snapshotInvalidator,
	metrics *MetricsService,
	logger *zap.Logger,
	defaultCapacity, maxGroupNumber int,
	runTTL time.Duration,
) *AutoAssignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxGroupNumber <= 0 {
		maxGroupNumber = 20
	}
	return &AutoAssignService{
		assignments:     assignments,
		trainees:        trainees,
		catalog:         catalog,
		requirements:    requirements,
		categories:      categories,
		metrics:         metrics,
		logger:          logger,
		runs:            newRunStore(runTTL),
		defaultCapacity: defaultCapacity,
		maxGroupNumber:  maxGroupNumber,
	}
}

// AttachQueue hands the service its background queue.
func (s *AutoAssignService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// Start registers a pending run and schedules it on the background queue.
// The returned result carries the run id the caller polls with.
func (s *AutoAssignService) Start(ctx context.Context, scheduleID string) (*dto.AutoAssignResult, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	result := &dto.AutoAssignResult{
		RunID:      uuid.NewString(),
		ScheduleID: scheduleID,
		Status:     dto.RunStatusPending,
		StartedAt:  time.Now().UTC(),
	}
	s.runs.Put(result)

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "auto-assign queue is not running")
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      result.RunID,
		Type:    "auto_assign",
		Payload: autoAssignJob{RunID: result.RunID, ScheduleID: scheduleID},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule auto-assign run")
	}
	return result, nil
}

// HandleJob is the queue handler executing one scheduled run.
func (s *AutoAssignService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(autoAssignJob)
	if !ok {
		s.logger.Error("unexpected auto-assign payload", zap.String("job_id", job.ID))
		return nil
	}
	_, err := s.Execute(ctx, payload.RunID, payload.ScheduleID)
	return err
}

// Status returns a stored run by id.
func (s *AutoAssignService) Status(runID string) (*dto.AutoAssignResult, error) {
	result, ok := s.runs.Get(runID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("auto-assign run %s not found", runID))
	}
	return result, nil
}

// Execute runs the planner synchronously under an existing run id. The run
// always proceeds to completion: trainees that cannot be placed are reported
// in the result, never aborted on.
func (s *AutoAssignService) Execute(ctx context.Context, runID, scheduleID string) (*dto.AutoAssignResult, error) {
	startedAt := time.Now().UTC()
	result := &dto.AutoAssignResult{
		RunID:      runID,
		ScheduleID: scheduleID,
		Status:     dto.RunStatusRunning,
		StartedAt:  startedAt,
		Summary:    dto.AutoAssignSummary{Tiers: make(map[string]int)},
	}
	s.runs.Put(result)

	state, err := s.loadState(ctx, scheduleID)
	if err != nil {
		finished := time.Now().UTC()
		result.Status = dto.RunStatusFailed
		result.Error = appErrors.FromError(err).Message
		result.FinishedAt = &finished
		s.runs.Put(result)
		return result, err
	}

	allCourses := courseIDs(state.index.Courses())

	// Tier 1: trainees missing every required course.
	for _, trainee := range state.set.NeedsAll {
		s.placeAcrossCourses(ctx, scheduleID, state, trainee, state.set.Missing[trainee.ID], tierNeedsAll, result)
	}

	// Tier 2: trainees missing a subset, walked course by course in
	// deterministic order.
	for _, courseID := range sortedCourseKeys(state.set.NeedsSome) {
		for _, trainee := range state.set.NeedsSome[courseID] {
			s.placeSingleCourse(ctx, scheduleID, state, trainee, courseID, result)
		}
	}

	// Tier 3: trainees whose role requires nothing on this schedule. They
	// still get a full placement so nobody is left without a seat.
	for _, trainee := range state.set.Unassigned {
		s.placeAcrossCourses(ctx, scheduleID, state, trainee, allCourses, tierUnassigned, result)
	}

	finished := time.Now().UTC()
	result.Status = dto.RunStatusCompleted
	result.FinishedAt = &finished
	result.Summary.Placed = len(result.Successful)
	result.Summary.Failed = len(result.Failed)
	s.runs.Put(result)

	s.metrics.ObservePlannerRun(result.Summary.Placed, result.Summary.Failed, finished.Sub(startedAt))
	if result.Summary.Assignments > 0 {
		s.categories.Invalidate(ctx, scheduleID)
	}
	s.logger.Info("auto-assign run finished",
		zap.String("run_id", runID),
		zap.String("schedule_id", scheduleID),
		zap.Int("placed", result.Summary.Placed),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("assignments", result.Summary.Assignments))
	return result, nil
}

func (s *AutoAssignService) loadState(ctx context.Context, scheduleID string) (*engineState, error) {
	return loadEngineState(ctx, scheduleID, s.catalog, s.trainees, s.requirements, s.assignments, s.defaultCapacity, s.logger)
}

// placeAcrossCourses finds the first group at the trainee's location offering
// every needed course with a free seat, then commits one session per course.
func (s *AutoAssignService) placeAcrossCourses(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	neededCourses []string,
	tier string,
	result *dto.AutoAssignResult,
) {
	if len(neededCourses) == 0 {
		return
	}

	groupNumber, found := s.findGroup(state, trainee, neededCourses)
	if !found {
		result.Failed = append(result.Failed, dto.PlacementFailure{
			TraineeID: trainee.ID,
			Code:      failureNoCapacity,
			Message:   fmt.Sprintf("no group at %s offers all %d needed courses with a free seat", trainee.Location, len(neededCourses)),
		})
		return
	}

	committed := 0
	for _, courseID := range neededCourses {
		parts := state.index.CourseSessionsInGroup(courseID, trainee.Location, groupNumber)
		session := parts[0]
		if err := s.insert(ctx, scheduleID, state, trainee, session, models.LevelGroup); err != nil {
			// Committed courses stay committed. The next run picks this
			// trainee up as needs-some and fills the gap.
			result.Failed = append(result.Failed, dto.PlacementFailure{
				TraineeID: trainee.ID,
				CourseID:  courseID,
				Code:      failurePersistence,
				Message:   appErrors.FromError(err).Message,
			})
			continue
		}
		committed++
	}
	if committed == 0 {
		return
	}

	state.tracker.Reserve(trainee.Location, groupNumber, trainee.ID)
	result.Successful = append(result.Successful, trainee.ID)
	result.Summary.Assignments += committed
	result.Summary.Tiers[tier]++
}

// placeSingleCourse walks the course's groups at the trainee's location in
// ascending group order and takes the first one with both a group seat and a
// session seat.
func (s *AutoAssignService) placeSingleCourse(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	courseID string,
	result *dto.AutoAssignResult,
) {
	for _, groupNumber := range state.index.CourseGroupNumbers(courseID, trainee.Location) {
		ceiling := state.index.GroupCeiling(trainee.Location, groupNumber)
		if !state.tracker.HasCapacity(trainee.Location, groupNumber, ceiling, trainee.ID) {
			continue
		}
		parts := state.index.CourseSessionsInGroup(courseID, trainee.Location, groupNumber)
		if blocked(state.tracker, parts, trainee.ID) {
			continue
		}

		committed := 0
		for _, session := range parts {
			if err := s.insert(ctx, scheduleID, state, trainee, session, models.LevelCourse); err != nil {
				result.Failed = append(result.Failed, dto.PlacementFailure{
					TraineeID: trainee.ID,
					CourseID:  courseID,
					Code:      failurePersistence,
					Message:   appErrors.FromError(err).Message,
				})
				continue
			}
			committed++
		}
		if committed > 0 {
			state.tracker.Reserve(trainee.Location, groupNumber, trainee.ID)
			result.Successful = append(result.Successful, trainee.ID)
			result.Summary.Assignments += committed
			result.Summary.Tiers[tierNeedsSome]++
		}
		return
	}

	result.Failed = append(result.Failed, dto.PlacementFailure{
		TraineeID: trainee.ID,
		CourseID:  courseID,
		Code:      failureNoCapacity,
		Message:   fmt.Sprintf("no seat left for course %s at %s", courseID, trainee.Location),
	})
}

// findGroup scans group numbers in ascending order for one that runs every
// needed course at the trainee's location and still has a seat under its
// ceiling.
func (s *AutoAssignService) findGroup(state *engineState, trainee models.Trainee, neededCourses []string) (int, bool) {
	for groupNumber := 1; groupNumber <= s.maxGroupNumber; groupNumber++ {
		ceiling := state.index.GroupCeiling(trainee.Location, groupNumber)
		if ceiling == 0 {
			continue
		}
		if !state.tracker.HasCapacity(trainee.Location, groupNumber, ceiling, trainee.ID) {
			continue
		}
		offersAll := true
		for _, courseID := range neededCourses {
			if !state.index.HasCourseInGroup(courseID, trainee.Location, groupNumber) {
				offersAll = false
				break
			}
		}
		if offersAll {
			return groupNumber, true
		}
	}
	return 0, false
}

// blocked reports whether any session of the slice is full. Sessions are
// checked under their stable id, the key reservations use.
func blocked(tracker *CapacityTracker, sessions []models.Session, traineeID string) bool {
	for _, session := range sessions {
		if !tracker.SessionHasCapacity(StableID(session), session.Capacity, traineeID) {
			return true
		}
	}
	return false
}

func (s *AutoAssignService) insert(
	ctx context.Context,
	scheduleID string,
	state *engineState,
	trainee models.Trainee,
	session models.Session,
	level models.AssignmentLevel,
) error {
	record := &models.Assignment{
		ScheduleID:     scheduleID,
		TraineeID:      trainee.ID,
		Level:          level,
		CourseID:       session.CourseID,
		SessionID:      StableID(session),
		GroupID:        session.GroupID(),
		Location:       session.Location,
		FunctionalArea: session.FunctionalArea,
		Type:           models.AssignmentTypeAuto,
	}
	if err := s.assignments.Create(ctx, record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignment")
	}
	state.tracker.ReserveSession(record.SessionID, trainee.ID)
	s.metrics.IncAssignmentCreated(string(models.AssignmentTypeAuto))
	return nil
}

func courseIDs(courses []models.Course) []string {
	ids := make([]string, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}
	return ids
}

func sortedCourseKeys(buckets map[string][]models.Trainee) []string {
	keys := make([]string, 0, len(buckets))
	for courseID := range buckets {
		keys = append(keys, courseID)
	}
	sort.Strings(keys)
	return keys
}
