package models

import "time"

// Supervisor is a mentor employed at an institution.
type Supervisor struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Position      *string   `db:"position" json:"position,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
