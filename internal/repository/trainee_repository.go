package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
)

const traineeColumns = "id, user_id, institution_id, full_name, student_number, start_date, expected_end_date, status, created_at, updated_at"

// TraineeRepository persists trainee profiles.
type TraineeRepository struct {
	db *sqlx.DB
}

// NewTraineeRepository constructs the repository.
func NewTraineeRepository(db *sqlx.DB) *TraineeRepository {
	return &TraineeRepository{db: db}
}

// FindByID fetches a trainee.
func (r *TraineeRepository) FindByID(ctx context.Context, id string) (*models.Trainee, error) {
	var trainee models.Trainee
	if err := r.db.GetContext(ctx, &trainee, "SELECT "+traineeColumns+" FROM trainees WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &trainee, nil
}

// FindByUserID fetches the trainee profile owned by a user account.
func (r *TraineeRepository) FindByUserID(ctx context.Context, userID string) (*models.Trainee, error) {
	var trainee models.Trainee
	if err := r.db.GetContext(ctx, &trainee, "SELECT "+traineeColumns+" FROM trainees WHERE user_id = $1 LIMIT 1", userID); err != nil {
		return nil, err
	}
	return &trainee, nil
}

// List returns trainees inside scope.
func (r *TraineeRepository) List(ctx context.Context, scope policy.Scope, filter models.TraineeFilter) ([]models.Trainee, int, error) {
	if scope.Deny {
		return []models.Trainee{}, 0, nil
	}
	w := &whereBuilder{}
	if !scope.All {
		w.in("id", scope.TraineeIDs)
	}
	if filter.InstitutionID != "" {
		w.add("institution_id = $%d", filter.InstitutionID)
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.Search != "" {
		w.add("full_name ILIKE $%d", "%"+filter.Search+"%")
	}
	where := w.String()

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM trainees"+where, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count trainees: %w", err)
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM trainees%s ORDER BY full_name ASC LIMIT %d OFFSET %d", traineeColumns, where, limit, offset)
	var trainees []models.Trainee
	if err := r.db.SelectContext(ctx, &trainees, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list trainees: %w", err)
	}
	return trainees, total, nil
}

// Create inserts a trainee.
func (r *TraineeRepository) Create(ctx context.Context, trainee *models.Trainee) error {
	if trainee.ID == "" {
		trainee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	trainee.CreatedAt = now
	trainee.UpdatedAt = now
	const query = `INSERT INTO trainees (id, user_id, institution_id, full_name, student_number, start_date, expected_end_date, status, created_at, updated_at)
		VALUES (:id, :user_id, :institution_id, :full_name, :student_number, :start_date, :expected_end_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, trainee); err != nil {
		return fmt.Errorf("create trainee: %w", err)
	}
	return nil
}

// Update persists the admin-mutable enrollment fields.
func (r *TraineeRepository) Update(ctx context.Context, trainee *models.Trainee) error {
	trainee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE trainees SET institution_id = :institution_id, full_name = :full_name, student_number = :student_number,
		start_date = :start_date, expected_end_date = :expected_end_date, status = :status, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, trainee); err != nil {
		return fmt.Errorf("update trainee: %w", err)
	}
	return nil
}
