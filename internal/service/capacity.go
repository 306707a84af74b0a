package service

import (
	"strconv"
	"strings"

	"github.com/opsline/training-assign-api/internal/models"
)

type groupKey struct {
	Location string
	Group    int
}

// CapacityTracker maintains distinct-trainee counts per (location, group
// number) and per session. It is preloaded once from a bulk assignment fetch
// and updated locally via Reserve during a run, so a bulk pass never issues a
// capacity query per trainee. Not safe for concurrent use; the engine runs
// one mutation at a time.
type CapacityTracker struct {
	groups   map[groupKey]map[string]struct{}
	sessions map[string]map[string]struct{}
}

// NewCapacityTracker returns an empty tracker.
func NewCapacityTracker() *CapacityTracker {
	return &CapacityTracker{
		groups:   make(map[groupKey]map[string]struct{}),
		sessions: make(map[string]map[string]struct{}),
	}
}

// Preload reduces a schedule's assignments to distinct-trainee sets. Group
// membership is derived from the persisted group id, so assignments across
// different courses of the same group count each trainee once.
func (t *CapacityTracker) Preload(assignments []models.Assignment) {
	for _, assignment := range assignments {
		group, ok := parseGroupID(assignment.GroupID)
		if ok {
			t.reserveGroup(group, assignment.TraineeID)
		}
		if assignment.SessionID != "" {
			t.reserveSession(assignment.SessionID, assignment.TraineeID)
		}
	}
}

// GroupCount returns the distinct-trainee count of a group.
func (t *CapacityTracker) GroupCount(location string, groupNumber int) int {
	return len(t.groups[groupKey{Location: location, Group: groupNumber}])
}

// SessionCount returns the distinct-trainee count of a session.
func (t *CapacityTracker) SessionCount(sessionID string) int {
	return len(t.sessions[sessionID])
}

// HasCapacity reports whether the group can take one more trainee under the
// given ceiling. A trainee already counted in the group occupies no extra
// seat.
func (t *CapacityTracker) HasCapacity(location string, groupNumber int, ceiling int, traineeID string) bool {
	if ceiling <= 0 {
		return false
	}
	key := groupKey{Location: location, Group: groupNumber}
	if _, ok := t.groups[key][traineeID]; ok {
		return true
	}
	return len(t.groups[key]) < ceiling
}

// SessionHasCapacity reports whether one session can take one more trainee.
func (t *CapacityTracker) SessionHasCapacity(sessionID string, ceiling int, traineeID string) bool {
	if ceiling <= 0 {
		return false
	}
	if _, ok := t.sessions[sessionID][traineeID]; ok {
		return true
	}
	return len(t.sessions[sessionID]) < ceiling
}

// Reserve records a committed trainee so subsequent checks in the same run
// see the update without a re-fetch. Idempotent per trainee.
func (t *CapacityTracker) Reserve(location string, groupNumber int, traineeID string) {
	t.reserveGroup(groupKey{Location: location, Group: groupNumber}, traineeID)
}

// ReserveSession records a committed trainee against one session.
func (t *CapacityTracker) ReserveSession(sessionID, traineeID string) {
	t.reserveSession(sessionID, traineeID)
}

// Release drops a trainee from a group counter after a full removal.
func (t *CapacityTracker) Release(location string, groupNumber int, traineeID string) {
	delete(t.groups[groupKey{Location: location, Group: groupNumber}], traineeID)
}

func (t *CapacityTracker) reserveGroup(key groupKey, traineeID string) {
	if t.groups[key] == nil {
		t.groups[key] = make(map[string]struct{})
	}
	t.groups[key][traineeID] = struct{}{}
}

func (t *CapacityTracker) reserveSession(sessionID, traineeID string) {
	if t.sessions[sessionID] == nil {
		t.sessions[sessionID] = make(map[string]struct{})
	}
	t.sessions[sessionID][traineeID] = struct{}{}
}

// parseGroupID splits the canonical "location#number" group identifier.
func parseGroupID(groupID string) (groupKey, bool) {
	hash := strings.LastIndex(groupID, "#")
	if hash <= 0 || hash == len(groupID)-1 {
		return groupKey{}, false
	}
	number, err := strconv.Atoi(groupID[hash+1:])
	if err != nil {
		return groupKey{}, false
	}
	return groupKey{Location: groupID[:hash], Group: number}, true
}
