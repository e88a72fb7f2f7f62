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

type evaluationStore interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	GetScoped(ctx context.Context, id string, scope policy.Scope) (*models.Evaluation, error)
	List(ctx context.Context, scope policy.Scope, filter models.SubmissionFilter) ([]models.Evaluation, int, error)
	Review(ctx context.Context, params repository.ReviewParams) error
}

// EvaluationService handles supervisor evaluations.
type EvaluationService struct {
	repo      evaluationStore
	workflow  *Workflow
	validator *validator.Validate
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(repo evaluationStore, workflow *Workflow, validate *validator.Validate) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	return &EvaluationService{repo: repo, workflow: workflow, validator: validate}
}

// Submit creates a pending evaluation with its overall score computed once.
func (s *EvaluationService) Submit(ctx context.Context, actor models.Actor, req dto.CreateEvaluationRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	if req.PeriodStart != nil && req.PeriodEnd != nil && req.PeriodEnd.Before(*req.PeriodStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period_end must not be before period_start")
	}
	scores := models.EvaluationScores{
		Technical:       *req.Technical,
		Communication:   *req.Communication,
		Teamwork:        *req.Teamwork,
		Initiative:      *req.Initiative,
		Professionalism: *req.Professionalism,
	}
	overall, err := AggregateScores(scores)
	if err != nil {
		return nil, err
	}

	traineeID := strings.TrimSpace(req.TraineeID)
	if err := s.workflow.authorizeSubmit(ctx, actor, models.KindEvaluation, traineeID); err != nil {
		return nil, err
	}

	evaluation := &models.Evaluation{
		Submission:       models.Submission{TraineeID: traineeID, AuthorID: actor.UserID},
		EvaluationScores: scores,
		OverallScore:     overall,
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		Comments:         req.Comments,
	}
	if err := s.repo.Create(ctx, evaluation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation")
	}
	s.workflow.submitted(ctx, actor, models.KindEvaluation, &evaluation.Submission, evaluation)
	return evaluation, nil
}

// Review approves or rejects a pending evaluation.
func (s *EvaluationService) Review(ctx context.Context, actor models.Actor, id string, req dto.ReviewRequest) (*models.Evaluation, error) {
	note, err := validateReview(s.validator, req)
	if err != nil {
		return nil, err
	}
	evaluation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, models.KindEvaluation, "failed to load evaluation")
	}
	if err := s.workflow.review(ctx, actor, models.KindEvaluation, &evaluation.Submission, req.Decision, note, s.repo.Review); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// Get returns an evaluation visible to actor.
func (s *EvaluationService) Get(ctx context.Context, actor models.Actor, id string) (*models.Evaluation, error) {
	scope, err := s.workflow.readScope(ctx, actor, models.KindEvaluation, nil)
	if err != nil {
		return nil, err
	}
	evaluation, err := s.repo.GetScoped(ctx, id, scope)
	if err != nil {
		return nil, notFoundOr(err, models.KindEvaluation, "failed to load evaluation")
	}
	return evaluation, nil
}

// List returns evaluations visible to actor.
func (s *EvaluationService) List(ctx context.Context, actor models.Actor, query dto.SubmissionQuery) ([]models.Evaluation, *models.Pagination, error) {
	filter, err := submissionFilter(query)
	if err != nil {
		return nil, nil, err
	}
	scope, err := s.workflow.readScope(ctx, actor, models.KindEvaluation, filter.Status)
	if err != nil {
		return nil, nil, err
	}
	evaluations, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return evaluations, pagination(filter.Page, filter.PageSize, total), nil
}

func pagination(page, size, total int) *models.Pagination {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
