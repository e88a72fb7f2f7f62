package models

import "time"

// Assignment links a supervisor to a trainee.
type Assignment struct {
	ID           string    `db:"id" json:"id"`
	SupervisorID string    `db:"supervisor_id" json:"supervisor_id"`
	TraineeID    string    `db:"trainee_id" json:"trainee_id"`
	IsPrimary    bool      `db:"is_primary" json:"is_primary"`
	AssignedDate time.Time `db:"assigned_date" json:"assigned_date"`
}

// AssignmentDetail enriches assignments with display names.
type AssignmentDetail struct {
	Assignment
	SupervisorName string `db:"supervisor_name" json:"supervisor_name"`
	TraineeName    string `db:"trainee_name" json:"trainee_name"`
}
