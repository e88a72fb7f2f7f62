package dto

import "github.com/noah-isme/training-monitor-api/internal/models"

// CreateInstitutionRequest registers a school or company.
type CreateInstitutionRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Address *string `json:"address"`
}

// CreateTraineeRequest enrolls a trainee.
type CreateTraineeRequest struct {
	UserID          string               `json:"user_id" validate:"required"`
	InstitutionID   string               `json:"institution_id" validate:"required"`
	FullName        string               `json:"full_name" validate:"required,max=200"`
	StudentNumber   *string              `json:"student_number" validate:"omitempty,max=64"`
	StartDate       string               `json:"start_date" validate:"required,datetime=2006-01-02"`
	ExpectedEndDate string               `json:"expected_end_date" validate:"required,datetime=2006-01-02"`
	Status          models.TraineeStatus `json:"status" validate:"omitempty,oneof=active completed suspended withdrawn"`
}

// UpdateTraineeRequest replaces the admin-mutable fields of a trainee.
type UpdateTraineeRequest struct {
	InstitutionID   string               `json:"institution_id" validate:"required"`
	FullName        string               `json:"full_name" validate:"required,max=200"`
	StudentNumber   *string              `json:"student_number" validate:"omitempty,max=64"`
	StartDate       string               `json:"start_date" validate:"required,datetime=2006-01-02"`
	ExpectedEndDate string               `json:"expected_end_date" validate:"required,datetime=2006-01-02"`
	Status          models.TraineeStatus `json:"status" validate:"required,oneof=active completed suspended withdrawn"`
}

// TraineeQuery mirrors trainee listing filters.
type TraineeQuery struct {
	InstitutionID string
	Status        string
	Search        string
	Page          int
	PageSize      int
}

// CreateSupervisorRequest registers a supervisor profile.
type CreateSupervisorRequest struct {
	UserID        string  `json:"user_id" validate:"required"`
	InstitutionID string  `json:"institution_id" validate:"required"`
	FullName      string  `json:"full_name" validate:"required,max=200"`
	Position      *string `json:"position" validate:"omitempty,max=120"`
}

// CreateAssignmentRequest links a supervisor to a trainee.
type CreateAssignmentRequest struct {
	SupervisorID string `json:"supervisor_id" validate:"required"`
	TraineeID    string `json:"trainee_id" validate:"required"`
	IsPrimary    bool   `json:"is_primary"`
}
