package models

import "time"

// Report is a trainee's periodic progress report.
type Report struct {
	Submission
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	PeriodStart time.Time `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time `db:"period_end" json:"period_end"`
}
