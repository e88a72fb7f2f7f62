package models

import "time"

// EvaluationScores are the five mandatory sub-scores of an evaluation.
type EvaluationScores struct {
	Technical       int `db:"technical" json:"technical"`
	Communication   int `db:"communication" json:"communication"`
	Teamwork        int `db:"teamwork" json:"teamwork"`
	Initiative      int `db:"initiative" json:"initiative"`
	Professionalism int `db:"professionalism" json:"professionalism"`
}

// Values returns the sub-scores in a fixed order.
func (s EvaluationScores) Values() []int {
	return []int{s.Technical, s.Communication, s.Teamwork, s.Initiative, s.Professionalism}
}

// Evaluation is a supervisor's scored assessment of a trainee.
type Evaluation struct {
	Submission
	EvaluationScores
	OverallScore int        `db:"overall_score" json:"overall_score"`
	PeriodStart  *time.Time `db:"period_start" json:"period_start,omitempty"`
	PeriodEnd    *time.Time `db:"period_end" json:"period_end,omitempty"`
	Comments     *string    `db:"comments" json:"comments,omitempty"`
}
