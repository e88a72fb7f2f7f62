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

type institutionService interface {
	List(ctx context.Context) ([]models.Institution, error)
	Get(ctx context.Context, id string) (*models.Institution, error)
	Create(ctx context.Context, req dto.CreateInstitutionRequest) (*models.Institution, error)
}

// InstitutionHandler exposes schools and host companies.
type InstitutionHandler struct {
	service institutionService
}

// NewInstitutionHandler constructs the handler.
func NewInstitutionHandler(service institutionService) *InstitutionHandler {
	return &InstitutionHandler{service: service}
}

// List godoc
// @Summary List institutions
// @Tags Institutions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institutions [get]
func (h *InstitutionHandler) List(c *gin.Context) {
	institutions, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institutions, nil)
}

// Get godoc
// @Summary Get institution detail
// @Tags Institutions
// @Produce json
// @Param id path string true "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id} [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	institution, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institution, nil)
}

// Create godoc
// @Summary Register an institution
// @Tags Institutions
// @Accept json
// @Produce json
// @Param payload body dto.CreateInstitutionRequest true "Institution payload"
// @Success 201 {object} response.Envelope
// @Router /institutions [post]
func (h *InstitutionHandler) Create(c *gin.Context) {
	var req dto.CreateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid institution payload"))
		return
	}
	institution, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, institution)
}
