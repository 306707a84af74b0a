package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsline/training-assign-api/internal/models"
)

var testCourses = []models.Course{
	{ID: "course-a", Name: "Course A"},
	{ID: "course-b", Name: "Course B"},
	{ID: "course-c", Name: "Course C"},
}

func trainee(id, role string) models.Trainee {
	return models.Trainee{ID: id, FullName: id, Location: "berlin", Role: role}
}

func TestCategorizeBuckets(t *testing.T) {
	requirements := map[string][]string{
		"all-rounder": {"course-a", "course-b", "course-c"},
		"specialist":  {"course-a", "course-b"},
		"visitor":     nil,
	}
	trainees := []models.Trainee{
		trainee("needs-all", "all-rounder"),
		trainee("needs-some", "specialist"),
		trainee("partial", "specialist"),
		trainee("done", "specialist"),
		trainee("visiting", "visitor"),
	}
	assignments := []models.Assignment{
		{TraineeID: "partial", CourseID: "course-a", GroupID: "berlin#1"},
		{TraineeID: "done", CourseID: "course-a", GroupID: "berlin#1"},
		{TraineeID: "done", CourseID: "course-b", GroupID: "berlin#1"},
	}

	set := Categorize(trainees, requirements, testCourses, assignments)

	require.Len(t, set.NeedsAll, 1)
	assert.Equal(t, "needs-all", set.NeedsAll[0].ID)

	require.Len(t, set.Unassigned, 1)
	assert.Equal(t, "visiting", set.Unassigned[0].ID)

	require.Len(t, set.PartiallyAssigned, 1)
	assert.Equal(t, "partial", set.PartiallyAssigned[0].ID)

	// needs-some misses both required courses, partial only course-b.
	assert.Len(t, set.NeedsSome["course-a"], 1)
	assert.Len(t, set.NeedsSome["course-b"], 2)

	assert.Equal(t, models.CategoryFullyAssigned, set.CategoryOf("done"))
	assert.Equal(t, models.CategoryNeedsSome, set.CategoryOf("needs-some"))
	assert.Equal(t, []string{"course-b"}, set.Missing["partial"])
	assert.Empty(t, set.Missing["done"])
}

func TestCategorizeRequiredIntersectsScheduleCourses(t *testing.T) {
	// The role requires a course the schedule does not offer. Only the
	// offered part counts; the missing off-schedule course never blocks
	// completion.
	requirements := map[string][]string{"role": {"course-a", "course-offsite"}}
	trainees := []models.Trainee{trainee("t1", "role")}
	assignments := []models.Assignment{{TraineeID: "t1", CourseID: "course-a", GroupID: "berlin#1"}}

	set := Categorize(trainees, requirements, testCourses, assignments)
	assert.Equal(t, models.CategoryFullyAssigned, set.CategoryOf("t1"))
	assert.Empty(t, set.NeedsAll)
	assert.Empty(t, set.PartiallyAssigned)
}

func TestCategorizeEmptyRequirementMeansUnassigned(t *testing.T) {
	set := Categorize([]models.Trainee{trainee("t1", "unknown-role")}, map[string][]string{}, testCourses, nil)
	require.Len(t, set.Unassigned, 1)
	assert.Equal(t, models.CategoryUnassigned, set.CategoryOf("t1"))
}

func TestCategorizeSubsetMissingEverythingIsNeedsSome(t *testing.T) {
	requirements := map[string][]string{"specialist": {"course-a", "course-b"}}
	set := Categorize([]models.Trainee{trainee("t1", "specialist")}, requirements, testCourses, nil)

	assert.Empty(t, set.NeedsAll)
	assert.Len(t, set.NeedsSome["course-a"], 1)
	assert.Len(t, set.NeedsSome["course-b"], 1)
	assert.Equal(t, models.CategoryNeedsSome, set.CategoryOf("t1"))
}

func TestCategorizeIsPure(t *testing.T) {
	requirements := map[string][]string{"all-rounder": {"course-a", "course-b", "course-c"}}
	trainees := []models.Trainee{trainee("t1", "all-rounder")}

	first := Categorize(trainees, requirements, testCourses, nil)
	second := Categorize(trainees, requirements, testCourses, nil)
	assert.Equal(t, first, second)
}

func TestCategoryOfUnknownTraineeDefaultsToFullyAssigned(t *testing.T) {
	set := Categorize(nil, nil, testCourses, nil)
	assert.Equal(t, models.CategoryFullyAssigned, set.CategoryOf("ghost"))
}
