package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
	"github.com/noah-isme/training-monitor-api/pkg/response"
)

type traineeService interface {
	List(ctx context.Context, actor models.Actor, query dto.TraineeQuery) ([]models.Trainee, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Trainee, error)
	Visible(ctx context.Context, actor models.Actor, id string) (bool, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateTraineeRequest) (*models.Trainee, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateTraineeRequest) (*models.Trainee, error)
}

type traineeAssignmentLister interface {
	ListByTrainee(ctx context.Context, traineeID string) ([]models.AssignmentDetail, error)
}

// TraineeHandler exposes trainee enrollment endpoints.
type TraineeHandler struct {
	service     traineeService
	assignments traineeAssignmentLister
}

// NewTraineeHandler constructs the handler.
func NewTraineeHandler(service traineeService, assignments traineeAssignmentLister) *TraineeHandler {
	return &TraineeHandler{service: service, assignments: assignments}
}

// List godoc
// @Summary List trainees
// @Tags Trainees
// @Produce json
// @Param institution_id query string false "Institution ID"
// @Param status query string false "Enrollment status"
// @Param search query string false "Name or student number"
// @Success 200 {object} response.Envelope
// @Router /trainees [get]
func (h *TraineeHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	page, size := pageParams(c)
	query := dto.TraineeQuery{
		InstitutionID: strings.TrimSpace(c.Query("institution_id")),
		Status:        strings.TrimSpace(c.Query("status")),
		Search:        strings.TrimSpace(c.Query("search")),
		Page:          page,
		PageSize:      size,
	}
	trainees, pagination, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainees, pagination)
}

// Get godoc
// @Summary Get trainee detail
// @Tags Trainees
// @Produce json
// @Param id path string true "Trainee ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainees/{id} [get]
func (h *TraineeHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	trainee, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainee, nil)
}

// Create godoc
// @Summary Enroll a trainee
// @Tags Trainees
// @Accept json
// @Produce json
// @Param payload body dto.CreateTraineeRequest true "Trainee payload"
// @Success 201 {object} response.Envelope
// @Router /trainees [post]
func (h *TraineeHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateTraineeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid trainee payload"))
		return
	}
	trainee, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, trainee)
}

// Update godoc
// @Summary Update a trainee
// @Tags Trainees
// @Accept json
// @Produce json
// @Param id path string true "Trainee ID"
// @Param payload body dto.UpdateTraineeRequest true "Trainee payload"
// @Success 200 {object} response.Envelope
// @Router /trainees/{id} [put]
func (h *TraineeHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateTraineeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid trainee payload"))
		return
	}
	trainee, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainee, nil)
}

// Supervisors godoc
// @Summary List supervisors assigned to a trainee
// @Tags Trainees
// @Produce json
// @Param id path string true "Trainee ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainees/{id}/supervisors [get]
func (h *TraineeHandler) Supervisors(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	visible, err := h.service.Visible(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !visible {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "trainee not found"))
		return
	}
	assignments, err := h.assignments.ListByTrainee(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
