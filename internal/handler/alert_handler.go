package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/service"
	"github.com/noah-isme/wedding-dispatch-api/pkg/response"
)

type alertService interface {
	Board(ctx context.Context, q dto.AlertQuery) (dto.AlertBoard, error)
	Feed(ctx context.Context) (dto.AlertFeed, error)
	Keepalive(ctx context.Context) (dto.KeepaliveStatus, error)
}

type alertExporter interface {
	Export(ctx context.Context, q dto.AlertQuery, format string) (service.ExportFile, error)
}

// AlertHandler exposes the overdue board, its polling feed and exports.
type AlertHandler struct {
	alerts   alertService
	exporter alertExporter
}

// NewAlertHandler constructs the handler.
func NewAlertHandler(alerts alertService, exporter alertExporter) *AlertHandler {
	return &AlertHandler{alerts: alerts, exporter: exporter}
}

func alertQuery(c *gin.Context) (dto.AlertQuery, error) {
	from, err := queryDate(c, "from")
	if err != nil {
		return dto.AlertQuery{}, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return dto.AlertQuery{}, err
	}
	return dto.AlertQuery{From: from, To: to, OnlyOverdue: queryFlag(c, "only")}, nil
}

// Board godoc
// @Summary Alert board
// @Tags Alerts
// @Produce json
// @Param only query bool false "Only overdue rows"
// @Param from query string false "YYYY-MM-DD, defaults to today"
// @Param to query string false "YYYY-MM-DD, defaults to today plus the window"
// @Success 200 {object} response.Envelope
// @Router /admin/alerts [get]
func (h *AlertHandler) Board(c *gin.Context) {
	q, err := alertQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	board, err := h.alerts.Board(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board)
}

// Feed godoc
// @Summary Overdue alerts for dashboard polling
// @Tags Alerts
// @Produce json
// @Success 200 {object} dto.AlertFeed
// @Router /admin/alerts/feed [get]
func (h *AlertHandler) Feed(c *gin.Context) {
	feed, err := h.alerts.Feed(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, feed)
}

// Export godoc
// @Summary Download the alert board
// @Tags Alerts
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /admin/alerts/export [get]
func (h *AlertHandler) Export(c *gin.Context) {
	q, err := alertQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), q, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Data)
}

// Keepalive godoc
// @Summary Whether uptime pingers should keep the service warm
// @Tags Alerts
// @Produce json
// @Success 200 {object} dto.KeepaliveStatus
// @Router /api/keepalive_needed [get]
func (h *AlertHandler) Keepalive(c *gin.Context) {
	status, err := h.alerts.Keepalive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, status)
}
