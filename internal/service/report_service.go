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

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id string) (*models.Report, error)
	GetScoped(ctx context.Context, id string, scope policy.Scope) (*models.Report, error)
	List(ctx context.Context, scope policy.Scope, filter models.SubmissionFilter) ([]models.Report, int, error)
	Review(ctx context.Context, params repository.ReviewParams) error
}

// ReportService handles trainee activity reports.
type ReportService struct {
	repo      reportStore
	workflow  *Workflow
	validator *validator.Validate
}

// NewReportService constructs a ReportService.
func NewReportService(repo reportStore, workflow *Workflow, validate *validator.Validate) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	return &ReportService{repo: repo, workflow: workflow, validator: validate}
}

// Submit creates a pending report.
func (s *ReportService) Submit(ctx context.Context, actor models.Actor, req dto.CreateReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	start, err := parseDate(req.PeriodStart, "period_start")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.PeriodEnd, "period_end")
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period_end must not be before period_start")
	}

	traineeID := strings.TrimSpace(req.TraineeID)
	if err := s.workflow.authorizeSubmit(ctx, actor, models.KindReport, traineeID); err != nil {
		return nil, err
	}

	report := &models.Report{
		Submission:  models.Submission{TraineeID: traineeID, AuthorID: actor.UserID},
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		PeriodStart: start,
		PeriodEnd:   end,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	s.workflow.submitted(ctx, actor, models.KindReport, &report.Submission, map[string]interface{}{
		"title":        report.Title,
		"period_start": report.PeriodStart,
		"period_end":   report.PeriodEnd,
	})
	return report, nil
}

// Review approves or rejects a pending report.
func (s *ReportService) Review(ctx context.Context, actor models.Actor, id string, req dto.ReviewRequest) (*models.Report, error) {
	note, err := validateReview(s.validator, req)
	if err != nil {
		return nil, err
	}
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, models.KindReport, "failed to load report")
	}
	if err := s.workflow.review(ctx, actor, models.KindReport, &report.Submission, req.Decision, note, s.repo.Review); err != nil {
		return nil, err
	}
	return report, nil
}

// Get returns a report visible to actor.
func (s *ReportService) Get(ctx context.Context, actor models.Actor, id string) (*models.Report, error) {
	scope, err := s.workflow.readScope(ctx, actor, models.KindReport, nil)
	if err != nil {
		return nil, err
	}
	report, err := s.repo.GetScoped(ctx, id, scope)
	if err != nil {
		return nil, notFoundOr(err, models.KindReport, "failed to load report")
	}
	return report, nil
}

// List returns reports visible to actor.
func (s *ReportService) List(ctx context.Context, actor models.Actor, query dto.SubmissionQuery) ([]models.Report, *models.Pagination, error) {
	filter, err := submissionFilter(query)
	if err != nil {
		return nil, nil, err
	}
	scope, err := s.workflow.readScope(ctx, actor, models.KindReport, filter.Status)
	if err != nil {
		return nil, nil, err
	}
	reports, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, pagination(filter.Page, filter.PageSize, total), nil
}
