package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-monitor-api/internal/models"
)

const supervisorColumns = "id, user_id, institution_id, full_name, position, active, created_at, updated_at"

// SupervisorRepository persists supervisor profiles.
type SupervisorRepository struct {
	db *sqlx.DB
}

// NewSupervisorRepository constructs the repository.
func NewSupervisorRepository(db *sqlx.DB) *SupervisorRepository {
	return &SupervisorRepository{db: db}
}

// FindByID fetches a supervisor.
func (r *SupervisorRepository) FindByID(ctx context.Context, id string) (*models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.GetContext(ctx, &supervisor, "SELECT "+supervisorColumns+" FROM supervisors WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &supervisor, nil
}

// FindByUserID fetches the supervisor profile owned by a user account.
func (r *SupervisorRepository) FindByUserID(ctx context.Context, userID string) (*models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.GetContext(ctx, &supervisor, "SELECT "+supervisorColumns+" FROM supervisors WHERE user_id = $1 LIMIT 1", userID); err != nil {
		return nil, err
	}
	return &supervisor, nil
}

// List returns supervisors, optionally restricted to one institution.
func (r *SupervisorRepository) List(ctx context.Context, institutionID string) ([]models.Supervisor, error) {
	w := &whereBuilder{}
	if institutionID != "" {
		w.add("institution_id = $%d", institutionID)
	}
	var supervisors []models.Supervisor
	query := "SELECT " + supervisorColumns + " FROM supervisors" + w.String() + " ORDER BY full_name ASC"
	if err := r.db.SelectContext(ctx, &supervisors, query, w.args...); err != nil {
		return nil, fmt.Errorf("list supervisors: %w", err)
	}
	return supervisors, nil
}

// Create inserts a supervisor.
func (r *SupervisorRepository) Create(ctx context.Context, supervisor *models.Supervisor) error {
	if supervisor.ID == "" {
		supervisor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	supervisor.CreatedAt = now
	supervisor.UpdatedAt = now
	const query = `INSERT INTO supervisors (id, user_id, institution_id, full_name, position, active, created_at, updated_at)
		VALUES (:id, :user_id, :institution_id, :full_name, :position, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, supervisor); err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}
	return nil
}
