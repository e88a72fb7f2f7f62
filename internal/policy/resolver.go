package policy

import (
	"context"
	"fmt"

	"github.com/noah-isme/training-monitor-api/internal/models"
)

// AssignmentGraph answers who is responsible for whom.
type AssignmentGraph interface {
	TraineesOf(ctx context.Context, supervisorID string) ([]string, error)
	SupervisorsOf(ctx context.Context, traineeID string) ([]string, error)
}

// Resolver turns actors into scopes and authorization decisions.
type Resolver struct {
	graph AssignmentGraph
}

// NewResolver constructs a resolver over the assignment graph.
func NewResolver(graph AssignmentGraph) *Resolver {
	return &Resolver{graph: graph}
}

// ScopeFor resolves the read scope of actor over submissions of kind.
func (r *Resolver) ScopeFor(ctx context.Context, actor models.Actor, kind models.SubmissionKind) (Scope, error) {
	capability := For(actor.Role, kind)
	scope, err := r.reachScope(ctx, actor, capability.Read)
	if err != nil || scope.Deny {
		return scope, err
	}
	if capability.ApprovedOnly {
		scope.Statuses = []models.SubmissionStatus{models.SubmissionStatusApproved}
	}
	return scope, nil
}

// TraineeScope resolves which trainee profiles the actor may read.
func (r *Resolver) TraineeScope(ctx context.Context, actor models.Actor) (Scope, error) {
	return r.reachScope(ctx, actor, TraineeReach(actor.Role))
}

// CanSubmit reports whether actor may author a submission of kind about traineeID.
func (r *Resolver) CanSubmit(ctx context.Context, actor models.Actor, kind models.SubmissionKind, traineeID string) (bool, error) {
	return r.reaches(ctx, actor, For(actor.Role, kind).Submit, traineeID)
}

// CanReview reports whether actor may review a submission of kind about traineeID.
func (r *Resolver) CanReview(ctx context.Context, actor models.Actor, kind models.SubmissionKind, traineeID string) (bool, error) {
	return r.reaches(ctx, actor, For(actor.Role, kind).Review, traineeID)
}

func (r *Resolver) reaches(ctx context.Context, actor models.Actor, reach Reach, traineeID string) (bool, error) {
	switch reach {
	case ReachAny:
		return true, nil
	case ReachSelf:
		return actor.ProfileID != "" && actor.ProfileID == traineeID, nil
	case ReachAssigned:
		if actor.ProfileID == "" {
			return false, nil
		}
		supervisors, err := r.supervisorsOf(ctx, traineeID)
		if err != nil {
			return false, err
		}
		for _, id := range supervisors {
			if id == actor.ProfileID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func (r *Resolver) reachScope(ctx context.Context, actor models.Actor, reach Reach) (Scope, error) {
	switch reach {
	case ReachAny:
		return Scope{All: true}, nil
	case ReachSelf:
		if actor.ProfileID == "" {
			return DenyAll(), nil
		}
		return Scope{TraineeIDs: []string{actor.ProfileID}}, nil
	case ReachAssigned:
		if actor.ProfileID == "" {
			return DenyAll(), nil
		}
		trainees, err := r.traineesOf(ctx, actor.ProfileID)
		if err != nil {
			return Scope{}, err
		}
		if len(trainees) == 0 {
			return DenyAll(), nil
		}
		return Scope{TraineeIDs: trainees}, nil
	default:
		return DenyAll(), nil
	}
}

func (r *Resolver) traineesOf(ctx context.Context, supervisorID string) ([]string, error) {
	ids, err := memoFrom(ctx).load("s:"+supervisorID, func() ([]string, error) {
		return r.graph.TraineesOf(ctx, supervisorID)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve trainees of %s: %w", supervisorID, err)
	}
	return ids, nil
}

func (r *Resolver) supervisorsOf(ctx context.Context, traineeID string) ([]string, error) {
	ids, err := memoFrom(ctx).load("t:"+traineeID, func() ([]string, error) {
		return r.graph.SupervisorsOf(ctx, traineeID)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve supervisors of %s: %w", traineeID, err)
	}
	return ids, nil
}
