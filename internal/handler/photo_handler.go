package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
	"github.com/noah-isme/wedding-dispatch-api/pkg/response"
)

type photoBoard interface {
	List(ctx context.Context, start, end time.Time) ([]dto.PhotoItem, error)
	Open(ctx context.Context, token string) (*os.File, error)
}

// PhotoHandler lists arrival photos and serves them through signed links.
type PhotoHandler struct {
	photos photoBoard
	clock  clock.Clock
	days   int
}

// NewPhotoHandler constructs the handler. Listings default to yesterday
// through days ahead.
func NewPhotoHandler(photos photoBoard, clk clock.Clock, days int) *PhotoHandler {
	return &PhotoHandler{photos: photos, clock: clk, days: days}
}

// List godoc
// @Summary Arrival photos with signed links
// @Tags Photos
// @Produce json
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /admin/photos [get]
func (h *PhotoHandler) List(c *gin.Context) {
	today := clock.DateOf(h.clock.Now(), h.clock.Location())
	start, end := today.AddDate(0, 0, -1), today.AddDate(0, 0, h.days)
	from, err := queryDate(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}

	items, err := h.photos.List(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Serve godoc
// @Summary Serve an arrival photo
// @Tags Photos
// @Produce image/jpeg,image/png,image/webp
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /photos/{token} [get]
func (h *PhotoHandler) Serve(c *gin.Context) {
	file, err := h.photos.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read photo"))
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}
