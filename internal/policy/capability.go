// Package policy decides who may submit, review and read submissions.
//
// Rules are held in a single capability table keyed by role and submission
// kind. Both the review workflow and the read paths consult this table; no
// other package compares role strings.
package policy

import "github.com/noah-isme/training-monitor-api/internal/models"

// Reach describes which trainees a capability extends to.
type Reach int

const (
	// ReachNone denies the capability.
	ReachNone Reach = iota
	// ReachAny grants it for every trainee.
	ReachAny
	// ReachAssigned grants it for trainees linked to the actor by an assignment.
	ReachAssigned
	// ReachSelf grants it only for the actor's own trainee profile.
	ReachSelf
)

// Capability is one cell of the capability table.
type Capability struct {
	Submit Reach
	Review Reach
	Read   Reach
	// ApprovedOnly hides pending and rejected records from the reader.
	ApprovedOnly bool
}

var capabilities = map[models.UserRole]map[models.SubmissionKind]Capability{
	models.RoleAdmin: {
		models.KindEvaluation: {Submit: ReachAny, Review: ReachAny, Read: ReachAny},
		models.KindAttendance: {Submit: ReachAny, Review: ReachNone, Read: ReachAny},
		models.KindReport:     {Submit: ReachAny, Review: ReachAny, Read: ReachAny},
	},
	models.RoleSupervisor: {
		models.KindEvaluation: {Submit: ReachAssigned, Review: ReachNone, Read: ReachAssigned},
		models.KindAttendance: {Submit: ReachAssigned, Review: ReachAssigned, Read: ReachAssigned},
		models.KindReport:     {Submit: ReachNone, Review: ReachAssigned, Read: ReachAssigned},
	},
	models.RoleTrainee: {
		models.KindEvaluation: {Submit: ReachNone, Review: ReachNone, Read: ReachSelf, ApprovedOnly: true},
		models.KindAttendance: {Submit: ReachSelf, Review: ReachNone, Read: ReachSelf},
		models.KindReport:     {Submit: ReachSelf, Review: ReachNone, Read: ReachSelf},
	},
}

// For returns the capability of role over kind. Unknown pairs get the zero value, which denies everything.
func For(role models.UserRole, kind models.SubmissionKind) Capability {
	return capabilities[role][kind]
}

// TraineeReach returns how far an actor of the role can see the trainee directory.
func TraineeReach(role models.UserRole) Reach {
	switch role {
	case models.RoleAdmin:
		return ReachAny
	case models.RoleSupervisor:
		return ReachAssigned
	case models.RoleTrainee:
		return ReachSelf
	default:
		return ReachNone
	}
}

// CanViewSupervisor reports whether actor may read a supervisor's caseload.
func CanViewSupervisor(actor models.Actor, supervisorID string) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleSupervisor:
		return actor.ProfileID != "" && actor.ProfileID == supervisorID
	default:
		return false
	}
}
