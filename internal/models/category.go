package models

// Category classifies a trainee's outstanding requirements against a
// schedule. Derived, never persisted.
type Category string

// Category values. Fully-assigned trainees are excluded from every bucket.
const (
	CategoryNeedsAll          Category = "NEEDS_ALL"
	CategoryNeedsSome         Category = "NEEDS_SOME"
	CategoryPartiallyAssigned Category = "PARTIALLY_ASSIGNED"
	CategoryUnassigned        Category = "UNASSIGNED"
	CategoryFullyAssigned     Category = "FULLY_ASSIGNED"
)

// CategorySet is the output of one categorization pass. ByTrainee gives O(1)
// category lookup for downstream consumers; Missing lists the outstanding
// course ids per trainee that still has any.
type CategorySet struct {
	NeedsAll          []Trainee            `json:"needs_all"`
	NeedsSome         map[string][]Trainee `json:"needs_some"`
	Unassigned        []Trainee            `json:"unassigned"`
	PartiallyAssigned []Trainee            `json:"partially_assigned"`

	ByTrainee map[string]Category `json:"by_trainee"`
	Missing   map[string][]string `json:"missing"`
}

// CategoryOf returns the trainee's category, defaulting to fully assigned
// when the trainee appears in no bucket.
func (c *CategorySet) CategoryOf(traineeID string) Category {
	if c == nil || c.ByTrainee == nil {
		return CategoryFullyAssigned
	}
	if cat, ok := c.ByTrainee[traineeID]; ok {
		return cat
	}
	return CategoryFullyAssigned
}
