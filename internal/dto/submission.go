package dto

import (
	"time"

	"github.com/noah-isme/training-monitor-api/internal/models"
)

// ReviewRequest captures a reviewer decision and optional note.
type ReviewRequest struct {
	Decision models.SubmissionStatus `json:"decision" validate:"required,oneof=approved rejected"`
	Note     string                  `json:"note" validate:"max=2000"`
}

// SubmissionQuery mirrors supported listing filters for any submission kind.
type SubmissionQuery struct {
	TraineeID string
	AuthorID  string
	Status    []models.SubmissionStatus
	Page      int
	PageSize  int
}

// CreateEvaluationRequest is the payload of a supervisor evaluation. Scores are pointers so a
// missing score fails validation instead of silently counting as zero.
type CreateEvaluationRequest struct {
	TraineeID       string     `json:"trainee_id" validate:"required"`
	Technical       *int       `json:"technical" validate:"required,min=0,max=100"`
	Communication   *int       `json:"communication" validate:"required,min=0,max=100"`
	Teamwork        *int       `json:"teamwork" validate:"required,min=0,max=100"`
	Initiative      *int       `json:"initiative" validate:"required,min=0,max=100"`
	Professionalism *int       `json:"professionalism" validate:"required,min=0,max=100"`
	PeriodStart     *time.Time `json:"period_start"`
	PeriodEnd       *time.Time `json:"period_end"`
	Comments        *string    `json:"comments" validate:"omitempty,max=4000"`
}

// CreateAttendanceRequest records one day of attendance.
type CreateAttendanceRequest struct {
	TraineeID string          `json:"trainee_id" validate:"required"`
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	CheckIn   *time.Time      `json:"check_in"`
	CheckOut  *time.Time      `json:"check_out"`
	Presence  models.Presence `json:"presence" validate:"required,oneof=present sick excused absent"`
	Activity  *string         `json:"activity" validate:"omitempty,max=2000"`
}

// CreateReportRequest submits a periodic activity report.
type CreateReportRequest struct {
	TraineeID   string `json:"trainee_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Content     string `json:"content" validate:"required"`
	PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" validate:"required,datetime=2006-01-02"`
}
