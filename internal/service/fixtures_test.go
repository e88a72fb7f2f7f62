package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
	"github.com/noah-isme/training-monitor-api/internal/repository"
)

type auditRecorder struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return a.err
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.logs))
	for i, l := range a.logs {
		out[i] = l.Action
	}
	return out
}

type traineeRepoStub struct {
	trainees map[string]*models.Trainee
	created  []*models.Trainee
	scope    policy.Scope
}

func newTraineeRepoStub(trainees ...*models.Trainee) *traineeRepoStub {
	stub := &traineeRepoStub{trainees: make(map[string]*models.Trainee)}
	for _, t := range trainees {
		stub.trainees[t.ID] = t
	}
	return stub
}

func (s *traineeRepoStub) FindByID(ctx context.Context, id string) (*models.Trainee, error) {
	if t, ok := s.trainees[id]; ok {
		copy := *t
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *traineeRepoStub) FindByUserID(ctx context.Context, userID string) (*models.Trainee, error) {
	for _, t := range s.trainees {
		if t.UserID == userID {
			copy := *t
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *traineeRepoStub) List(ctx context.Context, scope policy.Scope, filter models.TraineeFilter) ([]models.Trainee, int, error) {
	s.scope = scope
	var out []models.Trainee
	for _, t := range s.trainees {
		if scope.AllowsTrainee(t.ID) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *traineeRepoStub) Create(ctx context.Context, trainee *models.Trainee) error {
	if trainee.ID == "" {
		trainee.ID = fmt.Sprintf("trainee-%d", len(s.trainees)+1)
	}
	copy := *trainee
	s.trainees[trainee.ID] = &copy
	s.created = append(s.created, &copy)
	return nil
}

func (s *traineeRepoStub) Update(ctx context.Context, trainee *models.Trainee) error {
	if _, ok := s.trainees[trainee.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *trainee
	s.trainees[trainee.ID] = &copy
	return nil
}

type supervisorRepoStub struct {
	supervisors map[string]*models.Supervisor
}

func newSupervisorRepoStub(supervisors ...*models.Supervisor) *supervisorRepoStub {
	stub := &supervisorRepoStub{supervisors: make(map[string]*models.Supervisor)}
	for _, s := range supervisors {
		stub.supervisors[s.ID] = s
	}
	return stub
}

func (s *supervisorRepoStub) FindByID(ctx context.Context, id string) (*models.Supervisor, error) {
	if sup, ok := s.supervisors[id]; ok {
		copy := *sup
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *supervisorRepoStub) FindByUserID(ctx context.Context, userID string) (*models.Supervisor, error) {
	for _, sup := range s.supervisors {
		if sup.UserID == userID {
			copy := *sup
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

type institutionRepoStub struct {
	institutions map[string]*models.Institution
}

func (s *institutionRepoStub) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	if inst, ok := s.institutions[id]; ok {
		return inst, nil
	}
	return nil, sql.ErrNoRows
}

// assignmentRepoStub mirrors the repository rules: unique pair, single primary, optional promotion.
type assignmentRepoStub struct {
	mu          sync.Mutex
	assignments []models.Assignment
	seq         int
	listCalls   int
	createErr   error
	afterLoad   func()
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment, opts repository.CreateAssignmentOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	count := 0
	for _, a := range s.assignments {
		if a.TraineeID != assignment.TraineeID {
			continue
		}
		count++
		if a.SupervisorID == assignment.SupervisorID {
			return repository.ErrDuplicateAssignment
		}
		if a.IsPrimary && assignment.IsPrimary {
			return repository.ErrPrimaryTaken
		}
	}
	row := *assignment
	if opts.PromoteFirst && count == 0 {
		row.IsPrimary = true
	}
	s.seq++
	row.ID = fmt.Sprintf("assignment-%d", s.seq)
	s.assignments = append(s.assignments, row)
	assignment.ID, assignment.IsPrimary = row.ID, row.IsPrimary
	return nil
}

func (s *assignmentRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.assignments {
		if a.ID == id {
			s.assignments = append(s.assignments[:i], s.assignments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *assignmentRepoStub) TraineeIDsBySupervisor(ctx context.Context, supervisorID string) ([]string, error) {
	s.mu.Lock()
	s.listCalls++
	ids := []string{}
	for _, a := range s.assignments {
		if a.SupervisorID == supervisorID {
			ids = append(ids, a.TraineeID)
		}
	}
	hook := s.afterLoad
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return ids, nil
}

func (s *assignmentRepoStub) SupervisorIDsByTrainee(ctx context.Context, traineeID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	ids := []string{}
	for _, a := range s.assignments {
		if a.TraineeID == traineeID {
			ids = append(ids, a.SupervisorID)
		}
	}
	return ids, nil
}

func (s *assignmentRepoStub) ListByTrainee(ctx context.Context, traineeID string) ([]models.AssignmentDetail, error) {
	var out []models.AssignmentDetail
	for _, a := range s.assignments {
		if a.TraineeID == traineeID {
			out = append(out, models.AssignmentDetail{Assignment: a})
		}
	}
	return out, nil
}

func (s *assignmentRepoStub) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.AssignmentDetail, error) {
	var out []models.AssignmentDetail
	for _, a := range s.assignments {
		if a.SupervisorID == supervisorID {
			out = append(out, models.AssignmentDetail{Assignment: a})
		}
	}
	return out, nil
}

// memStore is an in-memory submission table. Scopes are evaluated with the same predicate the SQL compiles to.
type memStore[T any] struct {
	mu          sync.Mutex
	rows        map[string]*T
	base        func(*T) *models.Submission
	prefix      string
	seq         int
	beforeWrite func(id string)
	lastScope   policy.Scope
}

func newMemStore[T any](prefix string, base func(*T) *models.Submission) *memStore[T] {
	return &memStore[T]{rows: make(map[string]*T), base: base, prefix: prefix}
}

func newEvaluationStore() *memStore[models.Evaluation] {
	return newMemStore("evaluation", func(e *models.Evaluation) *models.Submission { return &e.Submission })
}

func newAttendanceStore() *memStore[models.AttendanceRecord] {
	return newMemStore("attendance", func(r *models.AttendanceRecord) *models.Submission { return &r.Submission })
}

func newReportStore() *memStore[models.Report] {
	return newMemStore("report", func(r *models.Report) *models.Submission { return &r.Submission })
}

func (s *memStore[T]) Create(ctx context.Context, row *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	sub := s.base(row)
	sub.ID = fmt.Sprintf("%s-%d", s.prefix, s.seq)
	sub.Status = models.SubmissionStatusPending
	sub.ReviewedBy, sub.ReviewedAt, sub.ReviewNote = nil, nil, nil
	copy := *row
	s.rows[sub.ID] = &copy
	return nil
}

func (s *memStore[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return s.GetScoped(ctx, id, policy.Scope{All: true})
}

func (s *memStore[T]) GetScoped(ctx context.Context, id string, scope policy.Scope) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || !scope.Matches(s.base(row)) {
		return nil, sql.ErrNoRows
	}
	copy := *row
	return &copy, nil
}

func (s *memStore[T]) List(ctx context.Context, scope policy.Scope, filter models.SubmissionFilter) ([]T, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScope = scope
	out := []T{}
	if scope.Deny {
		return out, 0, nil
	}
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		row := s.rows[id]
		sub := s.base(row)
		if scope.Matches(sub) && (filter.TraineeID == "" || filter.TraineeID == sub.TraineeID) {
			out = append(out, *row)
		}
	}
	return out, len(out), nil
}

func (s *memStore[T]) Review(ctx context.Context, params repository.ReviewParams) error {
	if s.beforeWrite != nil {
		s.beforeWrite(params.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[params.ID]
	if !ok || s.base(row).Status != models.SubmissionStatusPending {
		return sql.ErrNoRows
	}
	sub := s.base(row)
	reviewer, at := params.ReviewedBy, params.ReviewedAt
	sub.Status = params.Status
	sub.ReviewedBy = &reviewer
	sub.ReviewedAt = &at
	sub.ReviewNote = params.Note
	return nil
}

func (s *memStore[T]) forceStatus(id string, status models.SubmissionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base(s.rows[id]).Status = status
}

var errBoom = errors.New("boom")
