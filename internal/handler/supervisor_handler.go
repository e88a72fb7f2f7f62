package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	"github.com/noah-isme/training-monitor-api/internal/policy"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
	"github.com/noah-isme/training-monitor-api/pkg/response"
)

type supervisorService interface {
	List(ctx context.Context, institutionID string) ([]models.Supervisor, error)
	Get(ctx context.Context, id string) (*models.Supervisor, error)
	Create(ctx context.Context, req dto.CreateSupervisorRequest) (*models.Supervisor, error)
}

type supervisorAssignmentLister interface {
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.AssignmentDetail, error)
}

// SupervisorHandler exposes supervisor profiles.
type SupervisorHandler struct {
	service     supervisorService
	assignments supervisorAssignmentLister
}

// NewSupervisorHandler constructs the handler.
func NewSupervisorHandler(service supervisorService, assignments supervisorAssignmentLister) *SupervisorHandler {
	return &SupervisorHandler{service: service, assignments: assignments}
}

// List godoc
// @Summary List supervisors
// @Tags Supervisors
// @Produce json
// @Param institution_id query string false "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /supervisors [get]
func (h *SupervisorHandler) List(c *gin.Context) {
	supervisors, err := h.service.List(c.Request.Context(), strings.TrimSpace(c.Query("institution_id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisors, nil)
}

// Get godoc
// @Summary Get supervisor detail
// @Tags Supervisors
// @Produce json
// @Param id path string true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Router /supervisors/{id} [get]
func (h *SupervisorHandler) Get(c *gin.Context) {
	supervisor, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisor, nil)
}

// Create godoc
// @Summary Register a supervisor
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param payload body dto.CreateSupervisorRequest true "Supervisor payload"
// @Success 201 {object} response.Envelope
// @Router /supervisors [post]
func (h *SupervisorHandler) Create(c *gin.Context) {
	var req dto.CreateSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid supervisor payload"))
		return
	}
	supervisor, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, supervisor)
}

// Trainees godoc
// @Summary List trainees assigned to a supervisor
// @Tags Supervisors
// @Produce json
// @Param id path string true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /supervisors/{id}/trainees [get]
func (h *SupervisorHandler) Trainees(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	if !policy.CanViewSupervisor(actor, id) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	assignments, err := h.assignments.ListBySupervisor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
