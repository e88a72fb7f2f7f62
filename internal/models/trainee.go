package models

import "time"

// TraineeStatus tracks enrollment state.
type TraineeStatus string

const (
	TraineeStatusActive    TraineeStatus = "active"
	TraineeStatusCompleted TraineeStatus = "completed"
	TraineeStatusSuspended TraineeStatus = "suspended"
	TraineeStatusWithdrawn TraineeStatus = "withdrawn"
)

// Valid returns true when the status is a supported value.
func (s TraineeStatus) Valid() bool {
	switch s {
	case TraineeStatusActive, TraineeStatusCompleted, TraineeStatusSuspended, TraineeStatusWithdrawn:
		return true
	default:
		return false
	}
}

// Trainee is an enrolled participant of the training program.
type Trainee struct {
	ID              string        `db:"id" json:"id"`
	UserID          string        `db:"user_id" json:"user_id"`
	InstitutionID   string        `db:"institution_id" json:"institution_id"`
	FullName        string        `db:"full_name" json:"full_name"`
	StudentNumber   *string       `db:"student_number" json:"student_number,omitempty"`
	StartDate       time.Time     `db:"start_date" json:"start_date"`
	ExpectedEndDate time.Time     `db:"expected_end_date" json:"expected_end_date"`
	Status          TraineeStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// TraineeFilter captures listing filters for trainees.
type TraineeFilter struct {
	InstitutionID string
	Status        *TraineeStatus
	Search        string
	Page          int
	PageSize      int
}
