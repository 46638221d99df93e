package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/response"
)

type photographerService interface {
	List(ctx context.Context) ([]models.Photographer, error)
	Get(ctx context.Context, id int64) (*models.Photographer, error)
	Create(ctx context.Context, req dto.PhotographerRequest) (*models.Photographer, error)
	Update(ctx context.Context, id int64, req dto.PhotographerRequest) (*models.Photographer, error)
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context, req dto.PhotographerImportRequest) (dto.ImportResult, error)
}

// PhotographerHandler manages the roster.
type PhotographerHandler struct {
	service photographerService
}

// NewPhotographerHandler constructs the handler.
func NewPhotographerHandler(service photographerService) *PhotographerHandler {
	return &PhotographerHandler{service: service}
}

// List godoc
// @Summary List photographers
// @Tags Photographers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/photographers [get]
func (h *PhotographerHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Get photographer
// @Tags Photographers
// @Produce json
// @Param id path int true "Photographer ID"
// @Success 200 {object} response.Envelope
// @Router /admin/photographers/{id} [get]
func (h *PhotographerHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Create photographer
// @Tags Photographers
// @Accept json
// @Produce json
// @Param payload body dto.PhotographerRequest true "Photographer"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/photographers [post]
func (h *PhotographerHandler) Create(c *gin.Context) {
	var req dto.PhotographerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid photographer payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update photographer, renaming references when the name changes
// @Tags Photographers
// @Accept json
// @Produce json
// @Param id path int true "Photographer ID"
// @Param payload body dto.PhotographerRequest true "Photographer"
// @Success 200 {object} response.Envelope
// @Router /admin/photographers/{id} [put]
func (h *PhotographerHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.PhotographerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid photographer payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Delete godoc
// @Summary Delete photographer not assigned to any schedule
// @Tags Photographers
// @Param id path int true "Photographer ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /admin/photographers/{id} [delete]
func (h *PhotographerHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import roster rows
// @Tags Photographers
// @Accept json
// @Produce json
// @Param payload body dto.PhotographerImportRequest true "Rows"
// @Success 200 {object} response.Envelope
// @Router /admin/photographers/import [post]
func (h *PhotographerHandler) Import(c *gin.Context) {
	var req dto.PhotographerImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid import payload"))
		return
	}
	result, err := h.service.Import(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
