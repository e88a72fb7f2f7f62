package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
)

const evaluationColumns = submissionColumns + `, technical, communication, teamwork, initiative, professionalism,
       overall_score, period_start, period_end, comments`

// EvaluationRepository persists supervisor evaluations.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts a new pending evaluation.
func (r *EvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	stampNew(&evaluation.Submission, uuid.NewString)
	const query = `INSERT INTO evaluations
	(id, trainee_id, author_id, status, reviewed_by, reviewed_at, review_note, created_at, updated_at,
	 technical, communication, teamwork, initiative, professionalism, overall_score, period_start, period_end, comments)
	VALUES (:id, :trainee_id, :author_id, :status, :reviewed_by, :reviewed_at, :review_note, :created_at, :updated_at,
	 :technical, :communication, :teamwork, :initiative, :professionalism, :overall_score, :period_start, :period_end, :comments)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// FindByID loads an evaluation without visibility restrictions; used by the review workflow only.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	return r.GetScoped(ctx, id, policy.Scope{All: true})
}

// GetScoped loads an evaluation that lies inside scope.
func (r *EvaluationRepository) GetScoped(ctx context.Context, id string, scope policy.Scope) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := getSubmission(ctx, r.db, &evaluation, tableEvaluations, evaluationColumns, id, scope); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// List returns evaluations inside scope, newest first.
func (r *EvaluationRepository) List(ctx context.Context, scope policy.Scope, filter models.SubmissionFilter) ([]models.Evaluation, int, error) {
	if scope.Deny {
		return []models.Evaluation{}, 0, nil
	}
	var evaluations []models.Evaluation
	total, err := listSubmissions(ctx, r.db, &evaluations, tableEvaluations, evaluationColumns, scope, filter, "created_at DESC")
	if err != nil {
		return nil, 0, err
	}
	return evaluations, total, nil
}

// Review persists a decision on a pending evaluation.
func (r *EvaluationRepository) Review(ctx context.Context, params ReviewParams) error {
	return reviewSubmission(ctx, r.db, tableEvaluations, params)
}
