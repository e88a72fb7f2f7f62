package models

import "time"

// SubmissionKind identifies one member of the reviewed submission family.
type SubmissionKind string

const (
	KindEvaluation SubmissionKind = "evaluation"
	KindAttendance SubmissionKind = "attendance"
	KindReport     SubmissionKind = "report"
)

// SubmissionStatus captures the review lifecycle state.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}

// Submission holds the columns shared by evaluations, attendance records and reports.
// A pending submission never carries reviewer fields.
type Submission struct {
	ID         string           `db:"id" json:"id"`
	TraineeID  string           `db:"trainee_id" json:"trainee_id"`
	AuthorID   string           `db:"author_id" json:"author_id"`
	Status     SubmissionStatus `db:"status" json:"status"`
	ReviewedBy *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNote *string          `db:"review_note" json:"review_note,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// SubmissionFilter constrains listing queries on any submission table.
type SubmissionFilter struct {
	TraineeID string
	AuthorID  string
	Status    []SubmissionStatus
	Page      int
	PageSize  int
}
