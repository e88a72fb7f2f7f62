package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
)

const attendanceColumns = submissionColumns + ", date, check_in, check_out, presence, activity"

// AttendanceRepository persists daily attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a new pending attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	stampNew(&record.Submission, uuid.NewString)
	const query = `INSERT INTO attendance
	(id, trainee_id, author_id, status, reviewed_by, reviewed_at, review_note, created_at, updated_at,
	 date, check_in, check_out, presence, activity)
	VALUES (:id, :trainee_id, :author_id, :status, :reviewed_by, :reviewed_at, :review_note, :created_at, :updated_at,
	 :date, :check_in, :check_out, :presence, :activity)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// FindByID loads a record without visibility restrictions; used by the review workflow only.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	return r.GetScoped(ctx, id, policy.Scope{All: true})
}

// GetScoped loads a record that lies inside scope.
func (r *AttendanceRepository) GetScoped(ctx context.Context, id string, scope policy.Scope) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	if err := getSubmission(ctx, r.db, &record, tableAttendance, attendanceColumns, id, scope); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns attendance records inside scope, latest day first.
func (r *AttendanceRepository) List(ctx context.Context, scope policy.Scope, filter models.SubmissionFilter) ([]models.AttendanceRecord, int, error) {
	if scope.Deny {
		return []models.AttendanceRecord{}, 0, nil
	}
	var records []models.AttendanceRecord
	total, err := listSubmissions(ctx, r.db, &records, tableAttendance, attendanceColumns, scope, filter, "date DESC, created_at DESC")
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Review persists a decision on a pending record.
func (r *AttendanceRepository) Review(ctx context.Context, params ReviewParams) error {
	return reviewSubmission(ctx, r.db, tableAttendance, params)
}
