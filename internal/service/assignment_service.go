package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/repository"
	"github.com/noah-isme/training-monitor-api/pkg/config"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

type assignmentStore interface {
	Create(ctx context.Context, assignment *models.Assignment, opts repository.CreateAssignmentOptions) error
	Delete(ctx context.Context, id string) (bool, error)
	TraineeIDsBySupervisor(ctx context.Context, supervisorID string) ([]string, error)
	SupervisorIDsByTrainee(ctx context.Context, traineeID string) ([]string, error)
	ListByTrainee(ctx context.Context, traineeID string) ([]models.AssignmentDetail, error)
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.AssignmentDetail, error)
}

type traineeLookup interface {
	FindByID(ctx context.Context, id string) (*models.Trainee, error)
}

type supervisorLookup interface {
	FindByID(ctx context.Context, id string) (*models.Supervisor, error)
}

// AssignmentService manages the supervisor-trainee graph and answers graph queries for the policy resolver.
type AssignmentService struct {
	repo          assignmentStore
	trainees      traineeLookup
	supervisors   supervisorLookup
	cache         *CacheService
	audit         auditLogger
	validator     *validator.Validate
	logger        *zap.Logger
	primaryPolicy string
}

// AssignmentServiceOption configures the service.
type AssignmentServiceOption func(*AssignmentService)

// WithAssignmentCache enables read-through caching of graph lookups.
func WithAssignmentCache(cache *CacheService) AssignmentServiceOption {
	return func(s *AssignmentService) {
		s.cache = cache
	}
}

// WithPrimaryPolicy selects how primary supervisors are chosen.
func WithPrimaryPolicy(policy string) AssignmentServiceOption {
	return func(s *AssignmentService) {
		s.primaryPolicy = policy
	}
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentStore, trainees traineeLookup, supervisors supervisorLookup, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...AssignmentServiceOption) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &AssignmentService{
		repo:          repo,
		trainees:      trainees,
		supervisors:   supervisors,
		audit:         audit,
		validator:     validate,
		logger:        logger,
		primaryPolicy: config.PrimaryPolicyManual,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Assign links a supervisor to a trainee.
func (s *AssignmentService) Assign(ctx context.Context, actor models.Actor, req dto.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	supervisor, err := s.supervisors.FindByID(ctx, req.SupervisorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	if !supervisor.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
	}

	trainee, err := s.trainees.FindByID(ctx, req.TraineeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainee")
	}
	if trainee.Status != models.TraineeStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
	}

	assignment := &models.Assignment{
		SupervisorID: req.SupervisorID,
		TraineeID:    req.TraineeID,
		IsPrimary:    req.IsPrimary,
	}
	opts := repository.CreateAssignmentOptions{PromoteFirst: s.primaryPolicy == config.PrimaryPolicyAutoFirst}
	if err := s.repo.Create(ctx, assignment, opts); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
		case errors.Is(err, repository.ErrDuplicateAssignment):
			return nil, appErrors.Clone(appErrors.ErrConflict, "supervisor is already assigned to this trainee")
		case errors.Is(err, repository.ErrPrimaryTaken):
			return nil, appErrors.Clone(appErrors.ErrConflict, "trainee already has a primary supervisor")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
		}
	}

	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(assignment)
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     optionalString(actor.UserID),
		Action:     models.AuditActionAssignmentCreate,
		Resource:   "assignment",
		ResourceID: &assignment.ID,
		NewValues:  payload,
	})
	return assignment, nil
}

// Unassign removes an assignment. Removing an unknown id succeeds.
// The cache is invalidated even when nothing was removed so a retry after a failed invalidation heals it.
func (s *AssignmentService) Unassign(ctx context.Context, actor models.Actor, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	if err := s.invalidate(ctx); err != nil {
		return err
	}
	if !removed {
		return nil
	}
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     optionalString(actor.UserID),
		Action:     models.AuditActionAssignmentDelete,
		Resource:   "assignment",
		ResourceID: &id,
	})
	return nil
}

// TraineesOf returns the trainee ids linked to a supervisor.
func (s *AssignmentService) TraineesOf(ctx context.Context, supervisorID string) ([]string, error) {
	return s.cachedIDs(ctx, assignmentSupervisorCacheKey+supervisorID, func() ([]string, error) {
		return s.repo.TraineeIDsBySupervisor(ctx, supervisorID)
	})
}

// SupervisorsOf returns the supervisor ids linked to a trainee, primary first.
func (s *AssignmentService) SupervisorsOf(ctx context.Context, traineeID string) ([]string, error) {
	return s.cachedIDs(ctx, assignmentTraineeCacheKey+traineeID, func() ([]string, error) {
		return s.repo.SupervisorIDsByTrainee(ctx, traineeID)
	})
}

// ListByTrainee returns the detailed assignments of a trainee.
func (s *AssignmentService) ListByTrainee(ctx context.Context, traineeID string) ([]models.AssignmentDetail, error) {
	assignments, err := s.repo.ListByTrainee(ctx, traineeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListBySupervisor returns the detailed assignments of a supervisor.
func (s *AssignmentService) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.AssignmentDetail, error) {
	assignments, err := s.repo.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// cachedIDs reads through the cache under the current generation. A load that races a write
// stores its result under the old generation, which no later call reads.
func (s *AssignmentService) cachedIDs(ctx context.Context, key string, load func() ([]string, error)) ([]string, error) {
	gen, ok := s.cache.Generation(ctx, assignmentGenerationKey)
	if !ok {
		return load()
	}
	versioned := generationKey(gen) + key
	if ids, ok := s.cache.GetIDs(ctx, versioned); ok {
		return ids, nil
	}
	ids, err := load()
	if err != nil {
		return nil, err
	}
	s.cache.SetIDs(ctx, versioned, ids)
	return ids, nil
}

func (s *AssignmentService) invalidate(ctx context.Context) error {
	if !s.cache.Enabled() {
		return nil
	}
	gen, err := s.cache.Advance(ctx, assignmentGenerationKey)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "assignment saved but cache invalidation failed, retry the request")
	}
	if err := s.cache.Invalidate(ctx, generationKey(gen-1)+"*"); err != nil {
		s.logger.Warn("stale assignment generation left until ttl", zap.Int64("generation", gen-1), zap.Error(err))
	}
	return nil
}

func generationKey(gen int64) string {
	return assignmentCachePrefix + "g" + strconv.FormatInt(gen, 10) + ":"
}
