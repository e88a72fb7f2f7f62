package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/service"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
	"github.com/noah-isme/training-monitor-api/pkg/response"
)

type evaluationService interface {
	Submit(ctx context.Context, actor models.Actor, req dto.CreateEvaluationRequest) (*models.Evaluation, error)
	Review(ctx context.Context, actor models.Actor, id string, req dto.ReviewRequest) (*models.Evaluation, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Evaluation, error)
	List(ctx context.Context, actor models.Actor, query dto.SubmissionQuery) ([]models.Evaluation, *models.Pagination, error)
}

// EvaluationExporter renders the evaluations visible to an actor as a file.
type EvaluationExporter interface {
	Evaluations(ctx context.Context, actor models.Actor, query dto.SubmissionQuery, format string) (*service.ExportResult, error)
}

// EvaluationHandler exposes supervisor evaluations.
type EvaluationHandler struct {
	service  evaluationService
	exporter EvaluationExporter
}

// NewEvaluationHandler constructs the handler. A nil exporter disables the export endpoint.
func NewEvaluationHandler(service evaluationService, exporter EvaluationExporter) *EvaluationHandler {
	return &EvaluationHandler{service: service, exporter: exporter}
}

// Create godoc
// @Summary Submit an evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body dto.CreateEvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid evaluation payload"))
		return
	}
	evaluation, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, evaluation)
}

// List godoc
// @Summary List visible evaluations
// @Tags Evaluations
// @Produce json
// @Param trainee_id query string false "Trainee ID"
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /evaluations [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	evaluations, pagination, err := h.service.List(c.Request.Context(), actor, submissionQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluations, pagination)
}

// Get godoc
// @Summary Get evaluation detail
// @Tags Evaluations
// @Produce json
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	evaluation, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluation, nil)
}

// Review godoc
// @Summary Approve or reject a pending evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path string true "Evaluation ID"
// @Param payload body dto.ReviewRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /evaluations/{id}/review [post]
func (h *EvaluationHandler) Review(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	evaluation, err := h.service.Review(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluation, nil)
}

// Export godoc
// @Summary Export visible evaluations
// @Tags Evaluations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /evaluations/export [get]
func (h *EvaluationHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.exporter.Evaluations(c.Request.Context(), actor, submissionQuery(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
