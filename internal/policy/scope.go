package policy

import "github.com/noah-isme/training-monitor-api/internal/models"

// Scope is the resolved read predicate for one actor. Repositories compile it
// into their WHERE clause; Matches evaluates the same predicate in memory.
type Scope struct {
	// Deny short-circuits to an empty result.
	Deny bool
	// All lifts the trainee restriction.
	All bool
	// TraineeIDs restricts rows to these trainees when All is false.
	TraineeIDs []string
	// Statuses restricts rows to these statuses when non-empty.
	Statuses []models.SubmissionStatus
}

// DenyAll is the scope that matches nothing.
func DenyAll() Scope {
	return Scope{Deny: true}
}

// AllowsTrainee reports whether rows about traineeID fall inside the scope.
func (s Scope) AllowsTrainee(traineeID string) bool {
	if s.Deny {
		return false
	}
	if s.All {
		return true
	}
	for _, id := range s.TraineeIDs {
		if id == traineeID {
			return true
		}
	}
	return false
}

// AllowsStatus reports whether rows with the status fall inside the scope.
func (s Scope) AllowsStatus(status models.SubmissionStatus) bool {
	if len(s.Statuses) == 0 {
		return true
	}
	for _, st := range s.Statuses {
		if st == status {
			return true
		}
	}
	return false
}

// Matches evaluates the predicate against a submission.
func (s Scope) Matches(sub *models.Submission) bool {
	if sub == nil {
		return false
	}
	return s.AllowsTrainee(sub.TraineeID) && s.AllowsStatus(sub.Status)
}

// Narrow intersects the scope with a caller supplied status filter.
// The result never widens the original scope.
func (s Scope) Narrow(statuses []models.SubmissionStatus) Scope {
	if len(statuses) == 0 || s.Deny {
		return s
	}
	if len(s.Statuses) == 0 {
		s.Statuses = append([]models.SubmissionStatus(nil), statuses...)
		return s
	}
	kept := make([]models.SubmissionStatus, 0, len(statuses))
	for _, st := range statuses {
		if s.AllowsStatus(st) {
			kept = append(kept, st)
		}
	}
	if len(kept) == 0 {
		return DenyAll()
	}
	s.Statuses = kept
	return s
}
