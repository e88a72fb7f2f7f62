package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

type traineeStore interface {
	FindByID(ctx context.Context, id string) (*models.Trainee, error)
	List(ctx context.Context, scope policy.Scope, filter models.TraineeFilter) ([]models.Trainee, int, error)
	Create(ctx context.Context, trainee *models.Trainee) error
	Update(ctx context.Context, trainee *models.Trainee) error
}

type institutionLookup interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
}

// TraineeService manages trainee enrollment. Writes are admin-only at the route level; reads are scoped.
type TraineeService struct {
	repo         traineeStore
	institutions institutionLookup
	resolver     ScopeResolver
	audit        auditLogger
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewTraineeService constructs a TraineeService.
func NewTraineeService(repo traineeStore, institutions institutionLookup, resolver ScopeResolver, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *TraineeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TraineeService{repo: repo, institutions: institutions, resolver: resolver, audit: audit, validator: validate, logger: logger}
}

// List returns trainees visible to actor.
func (s *TraineeService) List(ctx context.Context, actor models.Actor, query dto.TraineeQuery) ([]models.Trainee, *models.Pagination, error) {
	filter := models.TraineeFilter{
		InstitutionID: strings.TrimSpace(query.InstitutionID),
		Search:        strings.TrimSpace(query.Search),
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	if query.Status != "" {
		status := models.TraineeStatus(strings.ToLower(query.Status))
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown trainee status")
		}
		filter.Status = &status
	}
	scope, err := s.scope(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	trainees, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainees")
	}
	return trainees, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a trainee visible to actor.
func (s *TraineeService) Get(ctx context.Context, actor models.Actor, id string) (*models.Trainee, error) {
	scope, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !scope.AllowsTrainee(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
	}
	return s.load(ctx, id)
}

// Visible reports whether actor may see the trainee.
func (s *TraineeService) Visible(ctx context.Context, actor models.Actor, id string) (bool, error) {
	scope, err := s.scope(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.AllowsTrainee(id), nil
}

// Create enrolls a trainee.
func (s *TraineeService) Create(ctx context.Context, actor models.Actor, req dto.CreateTraineeRequest) (*models.Trainee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainee payload")
	}
	trainee := &models.Trainee{
		UserID:        strings.TrimSpace(req.UserID),
		StudentNumber: req.StudentNumber,
		Status:        req.Status,
	}
	if trainee.Status == "" {
		trainee.Status = models.TraineeStatusActive
	}
	if err := s.applyEnrollment(ctx, trainee, req.InstitutionID, req.FullName, req.StartDate, req.ExpectedEndDate); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, trainee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create trainee")
	}
	payload, _ := json.Marshal(trainee)
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     optionalString(actor.UserID),
		Action:     models.AuditActionTraineeCreate,
		Resource:   "trainee",
		ResourceID: &trainee.ID,
		NewValues:  payload,
	})
	return trainee, nil
}

// Update replaces the enrollment period, institution and status of a trainee.
func (s *TraineeService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateTraineeRequest) (*models.Trainee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainee payload")
	}
	trainee, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before, _ := json.Marshal(trainee)

	trainee.StudentNumber = req.StudentNumber
	trainee.Status = req.Status
	if err := s.applyEnrollment(ctx, trainee, req.InstitutionID, req.FullName, req.StartDate, req.ExpectedEndDate); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, trainee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update trainee")
	}
	after, _ := json.Marshal(trainee)
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     optionalString(actor.UserID),
		Action:     models.AuditActionTraineeUpdate,
		Resource:   "trainee",
		ResourceID: &trainee.ID,
		OldValues:  before,
		NewValues:  after,
	})
	return trainee, nil
}

func (s *TraineeService) applyEnrollment(ctx context.Context, trainee *models.Trainee, institutionID, fullName, startRaw, endRaw string) error {
	start, err := parseDate(startRaw, "start_date")
	if err != nil {
		return err
	}
	end, err := parseDate(endRaw, "expected_end_date")
	if err != nil {
		return err
	}
	if end.Before(start) {
		return appErrors.Clone(appErrors.ErrValidation, "expected_end_date must not be before start_date")
	}
	institutionID = strings.TrimSpace(institutionID)
	if _, err := s.institutions.FindByID(ctx, institutionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	trainee.InstitutionID = institutionID
	trainee.FullName = strings.TrimSpace(fullName)
	trainee.StartDate = start
	trainee.ExpectedEndDate = end
	return nil
}

func (s *TraineeService) load(ctx context.Context, id string) (*models.Trainee, error) {
	trainee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainee")
	}
	return trainee, nil
}

func (s *TraineeService) scope(ctx context.Context, actor models.Actor) (policy.Scope, error) {
	scope, err := s.resolver.TraineeScope(ctx, actor)
	if err != nil {
		return policy.Scope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	return scope, nil
}
