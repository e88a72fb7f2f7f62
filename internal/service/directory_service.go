package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

type institutionStore interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
	List(ctx context.Context) ([]models.Institution, error)
	Create(ctx context.Context, institution *models.Institution) error
}

type supervisorStore interface {
	FindByID(ctx context.Context, id string) (*models.Supervisor, error)
	List(ctx context.Context, institutionID string) ([]models.Supervisor, error)
	Create(ctx context.Context, supervisor *models.Supervisor) error
}

// InstitutionService manages institutions.
type InstitutionService struct {
	repo      institutionStore
	validator *validator.Validate
}

// NewInstitutionService constructs an InstitutionService.
func NewInstitutionService(repo institutionStore, validate *validator.Validate) *InstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	return &InstitutionService{repo: repo, validator: validate}
}

// List returns every institution.
func (s *InstitutionService) List(ctx context.Context) ([]models.Institution, error) {
	institutions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}
	return institutions, nil
}

// Get returns one institution.
func (s *InstitutionService) Get(ctx context.Context, id string) (*models.Institution, error) {
	institution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return institution, nil
}

// Create registers an institution.
func (s *InstitutionService) Create(ctx context.Context, req dto.CreateInstitutionRequest) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution payload")
	}
	institution := &models.Institution{Name: strings.TrimSpace(req.Name), Address: req.Address}
	if err := s.repo.Create(ctx, institution); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create institution")
	}
	return institution, nil
}

// SupervisorService manages supervisor profiles.
type SupervisorService struct {
	repo         supervisorStore
	institutions institutionLookup
	validator    *validator.Validate
}

// NewSupervisorService constructs a SupervisorService.
func NewSupervisorService(repo supervisorStore, institutions institutionLookup, validate *validator.Validate) *SupervisorService {
	if validate == nil {
		validate = validator.New()
	}
	return &SupervisorService{repo: repo, institutions: institutions, validator: validate}
}

// List returns supervisors, optionally of one institution.
func (s *SupervisorService) List(ctx context.Context, institutionID string) ([]models.Supervisor, error) {
	supervisors, err := s.repo.List(ctx, strings.TrimSpace(institutionID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list supervisors")
	}
	return supervisors, nil
}

// Get returns one supervisor.
func (s *SupervisorService) Get(ctx context.Context, id string) (*models.Supervisor, error) {
	supervisor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	return supervisor, nil
}

// Create registers a supervisor.
func (s *SupervisorService) Create(ctx context.Context, req dto.CreateSupervisorRequest) (*models.Supervisor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supervisor payload")
	}
	if _, err := s.institutions.FindByID(ctx, req.InstitutionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	supervisor := &models.Supervisor{
		UserID:        strings.TrimSpace(req.UserID),
		InstitutionID: req.InstitutionID,
		FullName:      strings.TrimSpace(req.FullName),
		Position:      req.Position,
		Active:        true,
	}
	if err := s.repo.Create(ctx, supervisor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create supervisor")
	}
	return supervisor, nil
}
