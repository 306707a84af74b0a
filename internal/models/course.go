package models

// Course is a trainable unit. A course belongs to zero or more sessions in a
// given schedule.
type Course struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// RoleRequirement maps a trainee role to the course ids it requires.
type RoleRequirement struct {
	Role      string   `db:"role" json:"role"`
	CourseIDs []string `json:"course_ids"`
}
