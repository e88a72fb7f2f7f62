package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
	"github.com/noah-isme/training-monitor-api/internal/repository"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ScopeResolver resolves read scopes and workflow capabilities for an actor.
type ScopeResolver interface {
	ScopeFor(ctx context.Context, actor models.Actor, kind models.SubmissionKind) (policy.Scope, error)
	TraineeScope(ctx context.Context, actor models.Actor) (policy.Scope, error)
	CanSubmit(ctx context.Context, actor models.Actor, kind models.SubmissionKind, traineeID string) (bool, error)
	CanReview(ctx context.Context, actor models.Actor, kind models.SubmissionKind, traineeID string) (bool, error)
}

// Workflow holds the pieces shared by every submission kind: capability checks,
// the pending -> approved|rejected transition, audit and metrics.
type Workflow struct {
	resolver ScopeResolver
	trainees traineeLookup
	audit    auditLogger
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewWorkflow constructs the shared review workflow.
func NewWorkflow(resolver ScopeResolver, trainees traineeLookup, audit auditLogger, metrics *MetricsService, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		resolver: resolver,
		trainees: trainees,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// authorizeSubmit runs after payload validation: the trainee must exist, then the actor must hold the submit capability for it.
func (w *Workflow) authorizeSubmit(ctx context.Context, actor models.Actor, kind models.SubmissionKind, traineeID string) error {
	if _, err := w.trainees.FindByID(ctx, traineeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainee")
	}
	allowed, err := w.resolver.CanSubmit(ctx, actor, kind, traineeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve assignments")
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to submit "+string(kind)+" for this trainee")
	}
	return nil
}

// submitted records metrics and audit for a freshly created submission.
func (w *Workflow) submitted(ctx context.Context, actor models.Actor, kind models.SubmissionKind, sub *models.Submission, payload interface{}) {
	w.metrics.RecordSubmission(kind)
	raw, _ := json.Marshal(payload)
	emitAudit(ctx, w.audit, w.logger, &models.AuditLog{
		UserID:     optionalString(actor.UserID),
		Action:     models.AuditActionSubmissionCreate,
		Resource:   string(kind),
		ResourceID: &sub.ID,
		NewValues:  raw,
	})
}

// validateReview checks the decision before anything is read.
func validateReview(validate *validator.Validate, req dto.ReviewRequest) (*string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	note := optionalString(req.Note)
	if req.Decision == models.SubmissionStatusRejected && note == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a note is required when rejecting")
	}
	return note, nil
}

// review applies a validated decision to sub. A reviewed submission is final for every caller,
// so state is checked before capability.
// write must only touch pending rows and report sql.ErrNoRows otherwise.
func (w *Workflow) review(ctx context.Context, actor models.Actor, kind models.SubmissionKind, sub *models.Submission, decision models.SubmissionStatus, note *string, write func(context.Context, repository.ReviewParams) error) error {
	if sub.Status.Terminal() {
		return appErrors.Clone(appErrors.ErrInvalidTransition, string(kind)+" is already "+string(sub.Status))
	}
	allowed, err := w.resolver.CanReview(ctx, actor, kind, sub.TraineeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve assignments")
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to review this "+string(kind))
	}

	params := repository.ReviewParams{
		ID:         sub.ID,
		Status:     decision,
		ReviewedBy: actor.UserID,
		ReviewedAt: w.now(),
		Note:       note,
	}
	if err := write(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, string(kind)+" was reviewed concurrently")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist review")
	}

	before := sub.Status
	sub.Status = params.Status
	sub.ReviewedBy = &params.ReviewedBy
	sub.ReviewedAt = &params.ReviewedAt
	sub.ReviewNote = params.Note
	sub.UpdatedAt = params.ReviewedAt

	w.metrics.RecordReview(kind, decision)
	w.logger.Info("submission reviewed",
		zap.String("kind", string(kind)),
		zap.String("submission_id", sub.ID),
		zap.String("decision", string(decision)),
		zap.String("reviewer_id", actor.UserID),
	)
	oldValues, _ := json.Marshal(map[string]interface{}{"status": before})
	newValues, _ := json.Marshal(map[string]interface{}{"status": sub.Status, "review_note": sub.ReviewNote})
	emitAudit(ctx, w.audit, w.logger, &models.AuditLog{
		UserID:     optionalString(actor.UserID),
		Action:     models.AuditActionSubmissionReview,
		Resource:   string(kind),
		ResourceID: &sub.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
	})
	return nil
}

// readScope resolves the actor's scope for kind and intersects it with the requested statuses.
func (w *Workflow) readScope(ctx context.Context, actor models.Actor, kind models.SubmissionKind, statuses []models.SubmissionStatus) (policy.Scope, error) {
	scope, err := w.resolver.ScopeFor(ctx, actor, kind)
	if err != nil {
		return policy.Scope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve scope")
	}
	return scope.Narrow(statuses), nil
}

func submissionFilter(query dto.SubmissionQuery) (models.SubmissionFilter, error) {
	for _, st := range query.Status {
		if !st.Valid() {
			return models.SubmissionFilter{}, appErrors.Clone(appErrors.ErrValidation, "unknown status "+string(st))
		}
	}
	return models.SubmissionFilter{
		TraineeID: strings.TrimSpace(query.TraineeID),
		AuthorID:  strings.TrimSpace(query.AuthorID),
		Status:    query.Status,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}, nil
}

func notFoundOr(err error, kind models.SubmissionKind, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, string(kind)+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func emitAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, log *models.AuditLog) {
	if audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "training-monitor-api"
	if err := audit.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to persist audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

func parseDate(raw, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, field+" must be a YYYY-MM-DD date")
	}
	return t, nil
}
