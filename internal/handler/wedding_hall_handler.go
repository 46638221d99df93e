package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/response"
)

type weddingHallService interface {
	List(ctx context.Context) ([]models.WeddingHall, error)
	Save(ctx context.Context, req dto.WeddingHallRequest) (*models.WeddingHall, dto.HallPropagation, error)
	Update(ctx context.Context, id int64, req dto.WeddingHallRequest) (*models.WeddingHall, dto.HallPropagation, error)
	PropagateAddress(ctx context.Context, id int64) (dto.HallPropagation, error)
	Delete(ctx context.Context, id int64) error
}

// WeddingHallHandler manages the venue directory.
type WeddingHallHandler struct {
	service weddingHallService
}

// NewWeddingHallHandler constructs the handler.
func NewWeddingHallHandler(service weddingHallService) *WeddingHallHandler {
	return &WeddingHallHandler{service: service}
}

// List godoc
// @Summary List wedding halls
// @Tags Halls
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/halls [get]
func (h *WeddingHallHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Save godoc
// @Summary Create or update a hall by name
// @Tags Halls
// @Accept json
// @Produce json
// @Param payload body dto.WeddingHallRequest true "Hall"
// @Success 200 {object} response.Envelope
// @Router /admin/halls [post]
func (h *WeddingHallHandler) Save(c *gin.Context) {
	var req dto.WeddingHallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid hall payload"))
		return
	}
	hall, result, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hall, map[string]interface{}{"propagation": result})
}

// Update godoc
// @Summary Edit a hall, renaming schedule venues
// @Tags Halls
// @Accept json
// @Produce json
// @Param id path int true "Hall ID"
// @Param payload body dto.WeddingHallRequest true "Hall"
// @Success 200 {object} response.Envelope
// @Router /admin/halls/{id} [put]
func (h *WeddingHallHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.WeddingHallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid hall payload"))
		return
	}
	hall, result, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hall, map[string]interface{}{"propagation": result})
}

// Propagate godoc
// @Summary Copy the hall address to its schedules
// @Tags Halls
// @Produce json
// @Param id path int true "Hall ID"
// @Success 200 {object} response.Envelope
// @Router /admin/halls/{id}/propagate [post]
func (h *WeddingHallHandler) Propagate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.PropagateAddress(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete a hall
// @Tags Halls
// @Param id path int true "Hall ID"
// @Success 204
// @Router /admin/halls/{id} [delete]
func (h *WeddingHallHandler) Delete(c *gin.Context) {
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
