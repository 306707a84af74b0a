package service

import (
	"github.com/opsline/training-assign-api/internal/models"
)

// Categorize classifies every trainee against the schedule's course set and
// current assignments. It is a pure function of its arguments: no cached
// per-trainee state survives across calls, and identical inputs always yield
// identical output. Fully-assigned trainees appear in no bucket.
func Categorize(
	trainees []models.Trainee,
	requirements map[string][]string,
	scheduleCourses []models.Course,
	assignments []models.Assignment,
) *models.CategorySet {
	scheduleSet := make(map[string]bool, len(scheduleCourses))
	for _, course := range scheduleCourses {
		scheduleSet[course.ID] = true
	}

	assignedByTrainee := make(map[string]map[string]bool)
	for _, assignment := range assignments {
		if assignedByTrainee[assignment.TraineeID] == nil {
			assignedByTrainee[assignment.TraineeID] = make(map[string]bool)
		}
		assignedByTrainee[assignment.TraineeID][assignment.CourseID] = true
	}

	set := &models.CategorySet{
		NeedsSome: make(map[string][]models.Trainee),
		ByTrainee: make(map[string]models.Category, len(trainees)),
		Missing:   make(map[string][]string),
	}

	for _, trainee := range trainees {
		required := intersect(requirements[trainee.Role], scheduleSet)
		if len(required) == 0 {
			set.Unassigned = append(set.Unassigned, trainee)
			set.ByTrainee[trainee.ID] = models.CategoryUnassigned
			continue
		}

		assigned := assignedByTrainee[trainee.ID]
		missing := subtract(required, assigned)
		if len(missing) == 0 {
			// Fully assigned: excluded from every bucket.
			set.ByTrainee[trainee.ID] = models.CategoryFullyAssigned
			continue
		}
		set.Missing[trainee.ID] = missing

		if len(missing) == len(required) {
			if len(required) == len(scheduleCourses) {
				set.NeedsAll = append(set.NeedsAll, trainee)
				set.ByTrainee[trainee.ID] = models.CategoryNeedsAll
				continue
			}
			for _, courseID := range missing {
				set.NeedsSome[courseID] = append(set.NeedsSome[courseID], trainee)
			}
			set.ByTrainee[trainee.ID] = models.CategoryNeedsSome
			continue
		}

		// Some but not all required courses assigned. The trainee stays
		// reachable for targeted completion through the needsSome buckets.
		set.PartiallyAssigned = append(set.PartiallyAssigned, trainee)
		for _, courseID := range missing {
			set.NeedsSome[courseID] = append(set.NeedsSome[courseID], trainee)
		}
		set.ByTrainee[trainee.ID] = models.CategoryPartiallyAssigned
	}

	return set
}

func intersect(courseIDs []string, scheduleSet map[string]bool) []string {
	var result []string
	for _, id := range courseIDs {
		if scheduleSet[id] {
			result = append(result, id)
		}
	}
	return result
}

func subtract(courseIDs []string, assigned map[string]bool) []string {
	var result []string
	for _, id := range courseIDs {
		if !assigned[id] {
			result = append(result, id)
		}
	}
	return result
}
