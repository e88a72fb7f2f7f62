package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-monitor-api/internal/models"
)

var (
	// ErrDuplicateAssignment is returned when the supervisor-trainee pair already exists.
	ErrDuplicateAssignment = errors.New("assignment already exists")
	// ErrPrimaryTaken is returned when a second primary supervisor is requested for a trainee.
	ErrPrimaryTaken = errors.New("trainee already has a primary supervisor")
)

// CreateAssignmentOptions tunes assignment creation.
type CreateAssignmentOptions struct {
	// PromoteFirst marks the first assignment of a trainee as primary.
	PromoteFirst bool
}

// AssignmentRepository persists supervisor-trainee links.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment. The trainee row is locked for the duration of the
// transaction so the duplicate and single-primary checks cannot race with another insert.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment, opts CreateAssignmentOptions) (err error) {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedDate.IsZero() {
		assignment.AssignedDate = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM trainees WHERE id = $1 FOR UPDATE`, assignment.TraineeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock trainee: %w", err)
	}

	var existing []models.Assignment
	if err = tx.SelectContext(ctx, &existing, `SELECT id, supervisor_id, trainee_id, is_primary, assigned_date FROM assignments WHERE trainee_id = $1`, assignment.TraineeID); err != nil {
		return fmt.Errorf("load trainee assignments: %w", err)
	}
	hasPrimary := false
	for _, a := range existing {
		if a.SupervisorID == assignment.SupervisorID {
			return ErrDuplicateAssignment
		}
		if a.IsPrimary {
			hasPrimary = true
		}
	}
	if assignment.IsPrimary && hasPrimary {
		return ErrPrimaryTaken
	}
	row := *assignment
	if opts.PromoteFirst && len(existing) == 0 {
		row.IsPrimary = true
	}

	const insert = `INSERT INTO assignments (id, supervisor_id, trainee_id, is_primary, assigned_date)
		VALUES (:id, :supervisor_id, :trainee_id, :is_primary, :assigned_date)`
	if _, err = tx.NamedExecContext(ctx, insert, &row); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment: %w", err)
	}
	assignment.IsPrimary = row.IsPrimary
	return nil
}

// Delete removes an assignment. Deleting a missing id is not an error; the return value reports whether a row was removed.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check deleted assignment rows: %w", err)
	}
	return affected > 0, nil
}

// TraineeIDsBySupervisor returns the trainees linked to a supervisor.
func (r *AssignmentRepository) TraineeIDsBySupervisor(ctx context.Context, supervisorID string) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT trainee_id FROM assignments WHERE supervisor_id = $1 ORDER BY assigned_date ASC`, supervisorID); err != nil {
		return nil, fmt.Errorf("list trainees of supervisor: %w", err)
	}
	return ids, nil
}

// SupervisorIDsByTrainee returns the supervisors linked to a trainee.
func (r *AssignmentRepository) SupervisorIDsByTrainee(ctx context.Context, traineeID string) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT supervisor_id FROM assignments WHERE trainee_id = $1 ORDER BY is_primary DESC, assigned_date ASC`, traineeID); err != nil {
		return nil, fmt.Errorf("list supervisors of trainee: %w", err)
	}
	return ids, nil
}

const assignmentDetailQuery = `
SELECT a.id, a.supervisor_id, a.trainee_id, a.is_primary, a.assigned_date,
       s.full_name AS supervisor_name, t.full_name AS trainee_name
FROM assignments a
JOIN supervisors s ON s.id = a.supervisor_id
JOIN trainees t ON t.id = a.trainee_id`

// ListByTrainee returns detailed assignments of a trainee, primary first.
func (r *AssignmentRepository) ListByTrainee(ctx context.Context, traineeID string) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + `
WHERE a.trainee_id = $1
ORDER BY a.is_primary DESC, s.full_name ASC`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, traineeID); err != nil {
		return nil, fmt.Errorf("list trainee assignments: %w", err)
	}
	return assignments, nil
}

// ListBySupervisor returns detailed assignments of a supervisor.
func (r *AssignmentRepository) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + `
WHERE a.supervisor_id = $1
ORDER BY t.full_name ASC`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list supervisor assignments: %w", err)
	}
	return assignments, nil
}
