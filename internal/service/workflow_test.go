package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

var (
	adminActor      = models.Actor{UserID: "u-admin", Role: models.RoleAdmin}
	supervisorActor = models.Actor{UserID: "u-sup1", Role: models.RoleSupervisor, ProfileID: "sup-1"}
	otherSupervisor = models.Actor{UserID: "u-sup2", Role: models.RoleSupervisor, ProfileID: "sup-2"}
	traineeActor    = models.Actor{UserID: "u-t1", Role: models.RoleTrainee, ProfileID: "t1"}
	otherTrainee    = models.Actor{UserID: "u-t2", Role: models.RoleTrainee, ProfileID: "t2"}
)

type world struct {
	trainees    *traineeRepoStub
	assignments *assignmentRepoStub
	graph       *AssignmentService
	audit       *auditRecorder
	metrics     *MetricsService
	evalStore   *memStore[models.Evaluation]
	attStore    *memStore[models.AttendanceRecord]
	repStore    *memStore[models.Report]
	evaluations *EvaluationService
	attendance  *AttendanceService
	reports     *ReportService
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		trainees: newTraineeRepoStub(
			&models.Trainee{ID: "t1", UserID: "u-t1", Status: models.TraineeStatusActive},
			&models.Trainee{ID: "t2", UserID: "u-t2", Status: models.TraineeStatusActive},
		),
		assignments: &assignmentRepoStub{},
		audit:       &auditRecorder{},
		metrics:     NewMetricsService(),
		evalStore:   newEvaluationStore(),
		attStore:    newAttendanceStore(),
		repStore:    newReportStore(),
	}
	supervisors := newSupervisorRepoStub(
		&models.Supervisor{ID: "sup-1", UserID: "u-sup1", Active: true},
		&models.Supervisor{ID: "sup-2", UserID: "u-sup2", Active: true},
	)
	w.graph = NewAssignmentService(w.assignments, w.trainees, supervisors, w.audit, nil, nil)
	workflow := NewWorkflow(policy.NewResolver(w.graph), w.trainees, w.audit, w.metrics, nil)
	w.evaluations = NewEvaluationService(w.evalStore, workflow, nil)
	w.attendance = NewAttendanceService(w.attStore, workflow, nil)
	w.reports = NewReportService(w.repStore, workflow, nil)
	return w
}

func (w *world) assign(t *testing.T, supervisorID, traineeID string) *models.Assignment {
	t.Helper()
	a, err := w.graph.Assign(context.Background(), adminActor, dto.CreateAssignmentRequest{SupervisorID: supervisorID, TraineeID: traineeID})
	require.NoError(t, err)
	return a
}

func intPtr(v int) *int { return &v }

func evaluationRequest(traineeID string, scores ...int) dto.CreateEvaluationRequest {
	return dto.CreateEvaluationRequest{
		TraineeID:       traineeID,
		Technical:       intPtr(scores[0]),
		Communication:   intPtr(scores[1]),
		Teamwork:        intPtr(scores[2]),
		Initiative:      intPtr(scores[3]),
		Professionalism: intPtr(scores[4]),
	}
}

func requireAppError(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.Truef(t, errors.Is(err, want), "want %s, got %v", want.Code, err)
}

func TestEvaluationLifecycle(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.assign(t, "sup-1", "t1")

	evaluation, err := w.evaluations.Submit(ctx, supervisorActor, evaluationRequest("t1", 80, 90, 70, 85, 75))
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusPending, evaluation.Status)
	assert.Equal(t, 80, evaluation.OverallScore)
	assert.Equal(t, "u-sup1", evaluation.AuthorID)
	assert.Nil(t, evaluation.ReviewedBy)

	list, _, err := w.evaluations.List(ctx, traineeActor, dto.SubmissionQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = w.evaluations.Get(ctx, traineeActor, evaluation.ID)
	requireAppError(t, err, appErrors.ErrNotFound)

	_, err = w.evaluations.Review(ctx, supervisorActor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusApproved})
	requireAppError(t, err, appErrors.ErrForbidden)

	approved, err := w.evaluations.Review(ctx, adminActor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "u-admin", *approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)

	list, page, err := w.evaluations.List(ctx, traineeActor, dto.SubmissionQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, page.TotalCount)
	got, err := w.evaluations.Get(ctx, traineeActor, evaluation.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.OverallScore)

	_, err = w.evaluations.Review(ctx, adminActor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusRejected, Note: "late"})
	requireAppError(t, err, appErrors.ErrInvalidTransition)

	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.submissions.WithLabelValues("evaluation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.metrics.reviews.WithLabelValues("evaluation", "approved")))
	assert.Equal(t, []string{
		models.AuditActionAssignmentCreate,
		models.AuditActionSubmissionCreate,
		models.AuditActionSubmissionReview,
	}, w.audit.actions())
}

func TestUnassignedSupervisorCannotSubmit(t *testing.T) {
	w := newWorld(t)
	w.assign(t, "sup-1", "t1")

	_, err := w.evaluations.Submit(context.Background(), otherSupervisor, evaluationRequest("t1", 50, 50, 50, 50, 50))
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = w.evaluations.Submit(context.Background(), traineeActor, evaluationRequest("t1", 50, 50, 50, 50, 50))
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestSubmitChecksPayloadThenTraineeThenCapability(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.evaluations.Submit(ctx, otherSupervisor, evaluationRequest("ghost", 101, 50, 50, 50, 50))
	requireAppError(t, err, appErrors.ErrValidation)

	missing := evaluationRequest("ghost", 50, 50, 50, 50, 50)
	missing.Teamwork = nil
	_, err = w.evaluations.Submit(ctx, adminActor, missing)
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = w.evaluations.Submit(ctx, otherSupervisor, evaluationRequest("ghost", 50, 50, 50, 50, 50))
	requireAppError(t, err, appErrors.ErrNotFound)

	_, err = w.evaluations.Submit(ctx, otherSupervisor, evaluationRequest("t1", 50, 50, 50, 50, 50))
	requireAppError(t, err, appErrors.ErrForbidden)
}

func TestRejectWithoutNoteIsValidationError(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.evaluations.Review(ctx, adminActor, "does-not-exist", dto.ReviewRequest{Decision: models.SubmissionStatusRejected, Note: "   "})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = w.evaluations.Review(ctx, adminActor, "does-not-exist", dto.ReviewRequest{Decision: models.SubmissionStatusPending})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = w.evaluations.Review(ctx, adminActor, "does-not-exist", dto.ReviewRequest{Decision: models.SubmissionStatusApproved})
	requireAppError(t, err, appErrors.ErrNotFound)
}

func TestReviewOfTerminalSubmissionIsInvalidForEveryRole(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.assign(t, "sup-1", "t1")

	record, err := w.attendance.Submit(ctx, traineeActor, dto.CreateAttendanceRequest{TraineeID: "t1", Date: "2024-03-01", Presence: models.PresencePresent})
	require.NoError(t, err)
	w.attStore.forceStatus(record.ID, models.SubmissionStatusRejected)

	evaluation, err := w.evaluations.Submit(ctx, adminActor, evaluationRequest("t1", 60, 60, 60, 60, 60))
	require.NoError(t, err)
	w.evalStore.forceStatus(evaluation.ID, models.SubmissionStatusApproved)

	actors := map[string]models.Actor{
		"admin":             adminActor,
		"assigned":          supervisorActor,
		"unassigned":        otherSupervisor,
		"trainee":           traineeActor,
		"unrelated trainee": otherTrainee,
	}
	for name, actor := range actors {
		t.Run(name, func(t *testing.T) {
			_, err := w.attendance.Review(ctx, actor, record.ID, dto.ReviewRequest{Decision: models.SubmissionStatusApproved})
			requireAppError(t, err, appErrors.ErrInvalidTransition)

			_, err = w.evaluations.Review(ctx, actor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusRejected, Note: "late"})
			requireAppError(t, err, appErrors.ErrInvalidTransition)
		})
	}
	assert.NotContains(t, w.audit.actions(), models.AuditActionSubmissionReview)
}

func TestReviewNoteIsBounded(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	evaluation, err := w.evaluations.Submit(ctx, adminActor, evaluationRequest("t1", 60, 60, 60, 60, 60))
	require.NoError(t, err)

	_, err = w.evaluations.Review(ctx, adminActor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusRejected, Note: strings.Repeat("n", 2001)})
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = w.evaluations.Review(ctx, adminActor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusPending})
	requireAppError(t, err, appErrors.ErrValidation)

	reviewed, err := w.evaluations.Review(ctx, adminActor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusRejected, Note: strings.Repeat("n", 2000)})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusRejected, reviewed.Status)
}

func TestConcurrentReviewLoserGetsInvalidTransition(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	evaluation, err := w.evaluations.Submit(ctx, adminActor, evaluationRequest("t1", 60, 60, 60, 60, 60))
	require.NoError(t, err)
	w.evalStore.beforeWrite = func(id string) {
		w.evalStore.forceStatus(id, models.SubmissionStatusApproved)
	}

	_, err = w.evaluations.Review(ctx, adminActor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusRejected, Note: "incomplete"})
	requireAppError(t, err, appErrors.ErrInvalidTransition)
	assert.Equal(t, 0.0, testutil.ToFloat64(w.metrics.reviews.WithLabelValues("evaluation", "rejected")))
}

func TestAttendanceReviewBelongsToAssignedSupervisor(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.assign(t, "sup-1", "t1")

	record, err := w.attendance.Submit(ctx, traineeActor, dto.CreateAttendanceRequest{TraineeID: "t1", Date: "2024-03-01", Presence: models.PresencePresent})
	require.NoError(t, err)

	_, err = w.attendance.Submit(ctx, traineeActor, dto.CreateAttendanceRequest{TraineeID: "t2", Date: "2024-03-01", Presence: models.PresencePresent})
	requireAppError(t, err, appErrors.ErrForbidden)

	_, err = w.attendance.Review(ctx, adminActor, record.ID, dto.ReviewRequest{Decision: models.SubmissionStatusApproved})
	requireAppError(t, err, appErrors.ErrForbidden)
	_, err = w.attendance.Review(ctx, otherSupervisor, record.ID, dto.ReviewRequest{Decision: models.SubmissionStatusApproved})
	requireAppError(t, err, appErrors.ErrForbidden)

	reviewed, err := w.attendance.Review(ctx, supervisorActor, record.ID, dto.ReviewRequest{Decision: models.SubmissionStatusRejected, Note: "no logbook"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusRejected, reviewed.Status)
	require.NotNil(t, reviewed.ReviewNote)
	assert.Equal(t, "no logbook", *reviewed.ReviewNote)

	// trainees still see their own rejected attendance
	mine, _, err := w.attendance.List(ctx, traineeActor, dto.SubmissionQuery{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestAttendanceRejectsInvertedTimes(t *testing.T) {
	w := newWorld(t)
	in := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
	out := in.Add(-8 * time.Hour)
	_, err := w.attendance.Submit(context.Background(), adminActor, dto.CreateAttendanceRequest{
		TraineeID: "t1", Date: "2024-03-01", Presence: models.PresencePresent, CheckIn: &in, CheckOut: &out,
	})
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestReportWorkflow(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.assign(t, "sup-1", "t1")

	req := dto.CreateReportRequest{TraineeID: "t1", Title: "Week 1", Content: "setup", PeriodStart: "2024-03-04", PeriodEnd: "2024-03-08"}
	report, err := w.reports.Submit(ctx, traineeActor, req)
	require.NoError(t, err)

	_, err = w.reports.Submit(ctx, supervisorActor, req)
	requireAppError(t, err, appErrors.ErrForbidden)

	inverted := req
	inverted.PeriodEnd = "2024-03-01"
	_, err = w.reports.Submit(ctx, traineeActor, inverted)
	requireAppError(t, err, appErrors.ErrValidation)

	_, err = w.reports.Get(ctx, otherTrainee, report.ID)
	requireAppError(t, err, appErrors.ErrNotFound)
	_, err = w.reports.Get(ctx, otherSupervisor, report.ID)
	requireAppError(t, err, appErrors.ErrNotFound)

	reviewed, err := w.reports.Review(ctx, supervisorActor, report.ID, dto.ReviewRequest{Decision: models.SubmissionStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, reviewed.Status)
}

func TestSupervisorScopeFollowsAssignments(t *testing.T) {
	w := newWorld(t)
	assignment := w.assign(t, "sup-1", "t1")

	_, err := w.evaluations.Submit(context.Background(), adminActor, evaluationRequest("t1", 70, 70, 70, 70, 70))
	require.NoError(t, err)
	_, err = w.evaluations.Submit(context.Background(), adminActor, evaluationRequest("t2", 70, 70, 70, 70, 70))
	require.NoError(t, err)

	visible, _, err := w.evaluations.List(policy.WithRequestMemo(context.Background()), supervisorActor, dto.SubmissionQuery{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "t1", visible[0].TraineeID)

	require.NoError(t, w.graph.Unassign(context.Background(), adminActor, assignment.ID))

	visible, _, err = w.evaluations.List(policy.WithRequestMemo(context.Background()), supervisorActor, dto.SubmissionQuery{})
	require.NoError(t, err)
	assert.Empty(t, visible)
	assert.True(t, w.evalStore.lastScope.Deny)
}

func TestStatusFilterNeverWidensScope(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	_, err := w.evaluations.Submit(ctx, adminActor, evaluationRequest("t1", 70, 70, 70, 70, 70))
	require.NoError(t, err)

	list, _, err := w.evaluations.List(ctx, traineeActor, dto.SubmissionQuery{Status: []models.SubmissionStatus{models.SubmissionStatusPending}})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, w.evalStore.lastScope.Deny)

	_, _, err = w.evaluations.List(ctx, adminActor, dto.SubmissionQuery{Status: []models.SubmissionStatus{"archived"}})
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestAuditFailureDoesNotFailReview(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	evaluation, err := w.evaluations.Submit(ctx, adminActor, evaluationRequest("t1", 70, 70, 70, 70, 70))
	require.NoError(t, err)

	w.audit.err = errBoom
	reviewed, err := w.evaluations.Review(ctx, adminActor, evaluation.ID, dto.ReviewRequest{Decision: models.SubmissionStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, reviewed.Status)
}

func TestRequestMemoSharesGraphLookups(t *testing.T) {
	w := newWorld(t)
	w.assign(t, "sup-1", "t1")
	ctx := policy.WithRequestMemo(context.Background())

	for i := 0; i < 3; i++ {
		_, _, err := w.evaluations.List(ctx, supervisorActor, dto.SubmissionQuery{})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, w.assignments.listCalls)
}
