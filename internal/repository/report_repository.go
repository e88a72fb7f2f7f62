package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
)

const reportColumns = submissionColumns + ", title, content, period_start, period_end"

// ReportRepository persists trainee progress reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new pending report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	stampNew(&report.Submission, uuid.NewString)
	const query = `INSERT INTO reports
	(id, trainee_id, author_id, status, reviewed_by, reviewed_at, review_note, created_at, updated_at,
	 title, content, period_start, period_end)
	VALUES (:id, :trainee_id, :author_id, :status, :reviewed_by, :reviewed_at, :review_note, :created_at, :updated_at,
	 :title, :content, :period_start, :period_end)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// FindByID loads a report without visibility restrictions; used by the review workflow only.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	return r.GetScoped(ctx, id, policy.Scope{All: true})
}

// GetScoped loads a report that lies inside scope.
func (r *ReportRepository) GetScoped(ctx context.Context, id string, scope policy.Scope) (*models.Report, error) {
	var report models.Report
	if err := getSubmission(ctx, r.db, &report, tableReports, reportColumns, id, scope); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports inside scope, latest period first.
func (r *ReportRepository) List(ctx context.Context, scope policy.Scope, filter models.SubmissionFilter) ([]models.Report, int, error) {
	if scope.Deny {
		return []models.Report{}, 0, nil
	}
	var reports []models.Report
	total, err := listSubmissions(ctx, r.db, &reports, tableReports, reportColumns, scope, filter, "period_start DESC, created_at DESC")
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// Review persists a decision on a pending report.
func (r *ReportRepository) Review(ctx context.Context, params ReviewParams) error {
	return reviewSubmission(ctx, r.db, tableReports, params)
}
