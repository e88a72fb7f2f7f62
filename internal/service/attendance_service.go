package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
	"github.com/noah-isme/training-monitor-api/internal/repository"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

type attendanceStore interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	GetScoped(ctx context.Context, id string, scope policy.Scope) (*models.AttendanceRecord, error)
	List(ctx context.Context, scope policy.Scope, filter models.SubmissionFilter) ([]models.AttendanceRecord, int, error)
	Review(ctx context.Context, params repository.ReviewParams) error
}

// AttendanceService handles daily attendance records.
type AttendanceService struct {
	repo      attendanceStore
	workflow  *Workflow
	validator *validator.Validate
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceStore, workflow *Workflow, validate *validator.Validate) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, workflow: workflow, validator: validate}
}

// Submit records a pending attendance entry.
func (s *AttendanceService) Submit(ctx context.Context, actor models.Actor, req dto.CreateAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return nil, err
	}
	if req.CheckIn != nil && req.CheckOut != nil && req.CheckOut.Before(*req.CheckIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "check_out must not be before check_in")
	}

	traineeID := strings.TrimSpace(req.TraineeID)
	if err := s.workflow.authorizeSubmit(ctx, actor, models.KindAttendance, traineeID); err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		Submission: models.Submission{TraineeID: traineeID, AuthorID: actor.UserID},
		Date:       date,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Presence:   req.Presence,
		Activity:   req.Activity,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance")
	}
	s.workflow.submitted(ctx, actor, models.KindAttendance, &record.Submission, record)
	return record, nil
}

// Review approves or rejects a pending attendance record.
func (s *AttendanceService) Review(ctx context.Context, actor models.Actor, id string, req dto.ReviewRequest) (*models.AttendanceRecord, error) {
	note, err := validateReview(s.validator, req)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, models.KindAttendance, "failed to load attendance")
	}
	if err := s.workflow.review(ctx, actor, models.KindAttendance, &record.Submission, req.Decision, note, s.repo.Review); err != nil {
		return nil, err
	}
	return record, nil
}

// Get returns an attendance record visible to actor.
func (s *AttendanceService) Get(ctx context.Context, actor models.Actor, id string) (*models.AttendanceRecord, error) {
	scope, err := s.workflow.readScope(ctx, actor, models.KindAttendance, nil)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.GetScoped(ctx, id, scope)
	if err != nil {
		return nil, notFoundOr(err, models.KindAttendance, "failed to load attendance")
	}
	return record, nil
}

// List returns attendance records visible to actor.
func (s *AttendanceService) List(ctx context.Context, actor models.Actor, query dto.SubmissionQuery) ([]models.AttendanceRecord, *models.Pagination, error) {
	filter, err := submissionFilter(query)
	if err != nil {
		return nil, nil, err
	}
	scope, err := s.workflow.readScope(ctx, actor, models.KindAttendance, filter.Status)
	if err != nil {
		return nil, nil, err
	}
	records, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, pagination(filter.Page, filter.PageSize, total), nil
}
