package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsline/training-assign-api/internal/models"
)

func TestPreloadCountsDistinctTrainees(t *testing.T) {
	tracker := NewCapacityTracker()
	tracker.Preload([]models.Assignment{
		{TraineeID: "t1", GroupID: "berlin#1", SessionID: "s1"},
		{TraineeID: "t1", GroupID: "berlin#1", SessionID: "s2"},
		{TraineeID: "t2", GroupID: "berlin#1", SessionID: "s1"},
		{TraineeID: "t3", GroupID: "munich#1", SessionID: "s9"},
	})

	// t1 holds two courses in the group but occupies one seat.
	assert.Equal(t, 2, tracker.GroupCount("berlin", 1))
	assert.Equal(t, 1, tracker.GroupCount("munich", 1))
	assert.Equal(t, 2, tracker.SessionCount("s1"))
}

func TestHasCapacityCountsMembersOnce(t *testing.T) {
	tracker := NewCapacityTracker()
	tracker.Reserve("berlin", 1, "t1")
	tracker.Reserve("berlin", 1, "t2")

	// Full for newcomers, still open for an existing member.
	assert.False(t, tracker.HasCapacity("berlin", 1, 2, "t3"))
	assert.True(t, tracker.HasCapacity("berlin", 1, 2, "t1"))
	assert.True(t, tracker.HasCapacity("berlin", 1, 3, "t3"))
}

func TestHasCapacityZeroCeiling(t *testing.T) {
	tracker := NewCapacityTracker()
	assert.False(t, tracker.HasCapacity("berlin", 1, 0, "t1"))
	assert.False(t, tracker.SessionHasCapacity("s1", 0, "t1"))
}

func TestReserveIsIdempotentPerTrainee(t *testing.T) {
	tracker := NewCapacityTracker()
	tracker.Reserve("berlin", 1, "t1")
	tracker.Reserve("berlin", 1, "t1")
	assert.Equal(t, 1, tracker.GroupCount("berlin", 1))
}

func TestReleaseFreesSeat(t *testing.T) {
	tracker := NewCapacityTracker()
	tracker.Reserve("berlin", 1, "t1")
	tracker.Release("berlin", 1, "t1")
	assert.Equal(t, 0, tracker.GroupCount("berlin", 1))
	assert.True(t, tracker.HasCapacity("berlin", 1, 1, "t2"))
}

func TestParseGroupID(t *testing.T) {
	key, ok := parseGroupID("berlin#3")
	require.True(t, ok)
	assert.Equal(t, groupKey{Location: "berlin", Group: 3}, key)

	// Location may itself contain the separator.
	key, ok = parseGroupID("site#north#12")
	require.True(t, ok)
	assert.Equal(t, groupKey{Location: "site#north", Group: 12}, key)

	for _, malformed := range []string{"", "berlin", "berlin#", "#3", "berlin#x"} {
		_, ok := parseGroupID(malformed)
		assert.False(t, ok, malformed)
	}
}
