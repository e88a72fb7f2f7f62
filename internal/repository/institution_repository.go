package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-monitor-api/internal/models"
)

// InstitutionRepository persists institutions.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs the repository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindByID fetches an institution.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	var institution models.Institution
	if err := r.db.GetContext(ctx, &institution, `SELECT id, name, address, created_at, updated_at FROM institutions WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &institution, nil
}

// List returns all institutions ordered by name.
func (r *InstitutionRepository) List(ctx context.Context) ([]models.Institution, error) {
	var institutions []models.Institution
	if err := r.db.SelectContext(ctx, &institutions, `SELECT id, name, address, created_at, updated_at FROM institutions ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	return institutions, nil
}

// Create inserts an institution.
func (r *InstitutionRepository) Create(ctx context.Context, institution *models.Institution) error {
	if institution.ID == "" {
		institution.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	institution.CreatedAt = now
	institution.UpdatedAt = now
	const query = `INSERT INTO institutions (id, name, address, created_at, updated_at) VALUES (:id, :name, :address, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, institution); err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}
