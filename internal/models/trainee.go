package models

// Trainee is an individual requiring training. Location is the home training
// location used to disambiguate session references and to reject cross-site
// assignments. The required-course set is derived from Role, never stored.
type Trainee struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Location string `db:"location" json:"location"`
	Role     string `db:"role" json:"role"`
}

// TraineeFilter provides filters for listing trainees.
type TraineeFilter struct {
	Location string
	Role     string
	Page     int
	PageSize int
}

// Pagination mirrors the common list metadata block.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
