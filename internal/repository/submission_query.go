package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
)

const (
	tableEvaluations = "evaluations"
	tableAttendance  = "attendance"
	tableReports     = "reports"

	submissionColumns = "id, trainee_id, author_id, status, reviewed_by, reviewed_at, review_note, created_at, updated_at"
)

// ReviewParams groups the columns written by a review decision.
type ReviewParams struct {
	ID         string
	Status     models.SubmissionStatus
	ReviewedBy string
	ReviewedAt time.Time
	Note       *string
}

// whereBuilder accumulates AND-ed conditions with positional placeholders.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) in(column string, values []string) {
	if len(values) == 0 {
		w.conditions = append(w.conditions, "FALSE")
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		w.args = append(w.args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.conditions = append(w.conditions, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

// scope compiles the visibility predicate into the WHERE clause.
// Callers must handle scope.Deny before building a query.
func (w *whereBuilder) scope(scope policy.Scope) {
	if !scope.All {
		w.in("trainee_id", scope.TraineeIDs)
	}
	if len(scope.Statuses) > 0 {
		statuses := make([]string, len(scope.Statuses))
		for i, st := range scope.Statuses {
			statuses[i] = string(st)
		}
		w.in("status", statuses)
	}
}

func (w *whereBuilder) filter(filter models.SubmissionFilter) {
	if filter.TraineeID != "" {
		w.add("trainee_id = $%d", filter.TraineeID)
	}
	if filter.AuthorID != "" {
		w.add("author_id = $%d", filter.AuthorID)
	}
}

func (w *whereBuilder) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

func pageBounds(page, size int) (limit, offset int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// listSubmissions runs the scoped count + page queries for one submission table.
func listSubmissions(ctx context.Context, db *sqlx.DB, dest interface{}, table, columns string, scope policy.Scope, filter models.SubmissionFilter, orderBy string) (int, error) {
	w := &whereBuilder{}
	w.scope(scope)
	w.filter(filter)
	where := w.String()

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, where)
	if err := db.GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d OFFSET %d", columns, table, where, orderBy, limit, offset)
	if err := db.SelectContext(ctx, dest, query, w.args...); err != nil {
		return 0, fmt.Errorf("list %s: %w", table, err)
	}
	return total, nil
}

// getSubmission loads one row by id inside the scope; rows outside it read as sql.ErrNoRows.
func getSubmission(ctx context.Context, db *sqlx.DB, dest interface{}, table, columns, id string, scope policy.Scope) error {
	if scope.Deny {
		return sql.ErrNoRows
	}
	w := &whereBuilder{}
	w.add("id = $%d", id)
	w.scope(scope)
	query := fmt.Sprintf("SELECT %s FROM %s%s", columns, table, w.String())
	return db.GetContext(ctx, dest, query, w.args...)
}

// reviewSubmission applies a review decision only while the row is still pending.
// A row that was already reviewed (or does not exist) yields sql.ErrNoRows.
func reviewSubmission(ctx context.Context, db *sqlx.DB, table string, params ReviewParams) error {
	query := fmt.Sprintf(`UPDATE %s SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at,
	review_note = :review_note, updated_at = :updated_at
	WHERE id = :id AND status = '%s'`, table, models.SubmissionStatusPending)
	result, err := db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"reviewed_by": params.ReviewedBy,
		"reviewed_at": params.ReviewedAt,
		"review_note": params.Note,
		"updated_at":  params.ReviewedAt,
	})
	if err != nil {
		return fmt.Errorf("review %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s review rows: %w", table, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func stampNew(sub *models.Submission, newID func() string) {
	if sub.ID == "" {
		sub.ID = newID()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = sub.CreatedAt
	sub.Status = models.SubmissionStatusPending
	sub.ReviewedBy = nil
	sub.ReviewedAt = nil
	sub.ReviewNote = nil
}
