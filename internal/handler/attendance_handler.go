package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
	"github.com/noah-isme/training-monitor-api/pkg/response"
)

type attendanceService interface {
	Submit(ctx context.Context, actor models.Actor, req dto.CreateAttendanceRequest) (*models.AttendanceRecord, error)
	Review(ctx context.Context, actor models.Actor, id string, req dto.ReviewRequest) (*models.AttendanceRecord, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.AttendanceRecord, error)
	List(ctx context.Context, actor models.Actor, query dto.SubmissionQuery) ([]models.AttendanceRecord, *models.Pagination, error)
}

// AttendanceHandler exposes daily attendance records.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Create godoc
// @Summary Record attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.CreateAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid attendance payload"))
		return
	}
	record, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List visible attendance records
// @Tags Attendance
// @Produce json
// @Param trainee_id query string false "Trainee ID"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, pagination, err := h.service.List(c.Request.Context(), actor, submissionQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get attendance detail
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Review godoc
// @Summary Approve or reject pending attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body dto.ReviewRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/review [post]
func (h *AttendanceHandler) Review(c *gin.Context) {
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
	record, err := h.service.Review(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
