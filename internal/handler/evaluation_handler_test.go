package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/middleware"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/service"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withActor(c *gin.Context, role models.UserRole, profileID string) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-" + profileID, Role: role, ProfileID: profileID})
}

type evaluationServiceMock struct {
	actor      models.Actor
	query      dto.SubmissionQuery
	reviewReq  dto.ReviewRequest
	reviewID   string
	evaluation *models.Evaluation
	err        error
}

func (m *evaluationServiceMock) Submit(ctx context.Context, actor models.Actor, req dto.CreateEvaluationRequest) (*models.Evaluation, error) {
	m.actor = actor
	return m.evaluation, m.err
}

func (m *evaluationServiceMock) Review(ctx context.Context, actor models.Actor, id string, req dto.ReviewRequest) (*models.Evaluation, error) {
	m.actor, m.reviewID, m.reviewReq = actor, id, req
	return m.evaluation, m.err
}

func (m *evaluationServiceMock) Get(ctx context.Context, actor models.Actor, id string) (*models.Evaluation, error) {
	m.actor = actor
	return m.evaluation, m.err
}

func (m *evaluationServiceMock) List(ctx context.Context, actor models.Actor, query dto.SubmissionQuery) ([]models.Evaluation, *models.Pagination, error) {
	m.actor, m.query = actor, query
	if m.err != nil {
		return nil, nil, m.err
	}
	return []models.Evaluation{*m.evaluation}, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: 1}, nil
}

type exporterMock struct {
	format string
	result *service.ExportResult
	err    error
}

func (m *exporterMock) Evaluations(ctx context.Context, actor models.Actor, query dto.SubmissionQuery, format string) (*service.ExportResult, error) {
	m.format = format
	return m.result, m.err
}

func pendingEvaluation() *models.Evaluation {
	return &models.Evaluation{Submission: models.Submission{ID: "ev-1", TraineeID: "tr-1", Status: models.SubmissionStatusPending}}
}

func TestEvaluationHandlerCreatePassesActor(t *testing.T) {
	svc := &evaluationServiceMock{evaluation: pendingEvaluation()}
	h := NewEvaluationHandler(svc, nil)

	payload, _ := json.Marshal(map[string]interface{}{"trainee_id": "tr-1"})
	c, w := newGinContext(http.MethodPost, "/evaluations", payload)
	withActor(c, models.RoleSupervisor, "sup-1")

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.Actor{UserID: "u-sup-1", Role: models.RoleSupervisor, ProfileID: "sup-1"}, svc.actor)
	assert.Equal(t, "u-sup-1", c.GetString("actor_id"))
}

func TestEvaluationHandlerRequiresActor(t *testing.T) {
	h := NewEvaluationHandler(&evaluationServiceMock{}, nil)
	c, w := newGinContext(http.MethodGet, "/evaluations", nil)

	h.List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEvaluationHandlerListParsesQuery(t *testing.T) {
	svc := &evaluationServiceMock{evaluation: pendingEvaluation()}
	h := NewEvaluationHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/evaluations?trainee_id=tr-1&status=Pending,%20approved&page=2&page_size=5", nil)
	withActor(c, models.RoleAdmin, "")

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tr-1", svc.query.TraineeID)
	assert.Equal(t, []models.SubmissionStatus{models.SubmissionStatusPending, models.SubmissionStatusApproved}, svc.query.Status)
	assert.Equal(t, 2, svc.query.Page)
	assert.Equal(t, 5, svc.query.PageSize)

	var body struct {
		Data       []models.Evaluation `json:"data"`
		Pagination models.Pagination   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, 1, body.Pagination.TotalCount)
}

func TestEvaluationHandlerReviewMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not pending", appErrors.ErrInvalidTransition, http.StatusConflict},
		{"not assigned", appErrors.ErrForbidden, http.StatusForbidden},
		{"hidden", appErrors.ErrNotFound, http.StatusNotFound},
		{"missing note", appErrors.ErrValidation, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &evaluationServiceMock{err: tc.err}
			h := NewEvaluationHandler(svc, nil)

			payload, _ := json.Marshal(dto.ReviewRequest{Decision: models.SubmissionStatusRejected})
			c, w := newGinContext(http.MethodPost, "/evaluations/ev-1/review", payload)
			c.Params = gin.Params{{Key: "id", Value: "ev-1"}}
			withActor(c, models.RoleAdmin, "")

			h.Review(c)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "ev-1", svc.reviewID)
		})
	}
}

func TestEvaluationHandlerReviewRejectsMalformedBody(t *testing.T) {
	svc := &evaluationServiceMock{}
	h := NewEvaluationHandler(svc, nil)

	c, w := newGinContext(http.MethodPost, "/evaluations/ev-1/review", []byte("{"))
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}
	withActor(c, models.RoleAdmin, "")

	h.Review(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.reviewID)
}

func TestEvaluationHandlerExport(t *testing.T) {
	exporter := &exporterMock{result: &service.ExportResult{
		Filename:    "evaluations.csv",
		ContentType: "text/csv",
		Body:        []byte("id\nev-1\n"),
		Rows:        1,
	}}
	h := NewEvaluationHandler(&evaluationServiceMock{}, exporter)

	c, w := newGinContext(http.MethodGet, "/evaluations/export?format=csv", nil)
	withActor(c, models.RoleAdmin, "")

	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "evaluations.csv")
	assert.Equal(t, "id\nev-1\n", w.Body.String())
}

func TestEvaluationHandlerExportDisabled(t *testing.T) {
	h := NewEvaluationHandler(&evaluationServiceMock{}, nil)
	c, w := newGinContext(http.MethodGet, "/evaluations/export", nil)
	withActor(c, models.RoleAdmin, "")

	h.Export(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
