package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
	"github.com/noah-isme/training-monitor-api/pkg/response"
)

type assignmentService interface {
	Assign(ctx context.Context, actor models.Actor, req dto.CreateAssignmentRequest) (*models.Assignment, error)
	Unassign(ctx context.Context, actor models.Actor, id string) error
}

// AssignmentHandler manages supervisor-trainee links.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// Create godoc
// @Summary Assign a supervisor to a trainee
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Assign(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Delete godoc
// @Summary Remove an assignment
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Unassign(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
