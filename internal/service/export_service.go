package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
	"github.com/noah-isme/wedding-dispatch-api/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type alertBoardSource interface {
	Board(ctx context.Context, q dto.AlertQuery) (dto.AlertBoard, error)
}

type tableRenderer interface {
	Render(t export.Table) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportService renders the alert board as CSV or PDF.
type ExportService struct {
	alerts alertBoardSource
	csv    tableRenderer
	pdf    tableRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the default exporters.
func NewExportService(alerts alertBoardSource, csv, pdf tableRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{alerts: alerts, csv: csv, pdf: pdf, logger: logger}
}

var alertColumns = []export.Column{
	{Key: "date", Label: "Date", Width: 22},
	{Key: "wedding", Label: "Wedding", Width: 16},
	{Key: "venue", Label: "Venue"},
	{Key: "name", Label: "Photographer", Width: 28},
	{Key: "role", Label: "Role", Width: 12},
	{Key: "travel", Label: "Travel (min)", Width: 18},
	{Key: "wake", Label: "Wake by", Width: 18},
	{Key: "depart", Label: "Depart by", Width: 18},
	{Key: "arrive", Label: "Arrive by", Width: 18},
	{Key: "status", Label: "Status", Width: 40},
}

// Export renders the board for q in format.
func (s *ExportService) Export(ctx context.Context, q dto.AlertQuery, format string) (ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	var renderer tableRenderer
	contentType := ""
	switch format {
	case FormatCSV:
		renderer, contentType = s.csv, "text/csv; charset=utf-8"
	case FormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return ExportFile{}, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	board, err := s.alerts.Board(ctx, q)
	if err != nil {
		return ExportFile{}, err
	}
	data, err := renderer.Render(alertTable(board))
	if err != nil {
		return ExportFile{}, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Debug("alert board exported", zap.String("format", format), zap.Int("rows", board.Count))
	return ExportFile{
		Name:        fmt.Sprintf("alerts_%s_%s.%s", board.From, board.To, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func alertTable(board dto.AlertBoard) export.Table {
	rows := make([]export.Row, 0, len(board.Rows))
	for _, r := range board.Rows {
		wedding := ""
		if r.Schedule.WeddingTime != nil {
			wedding = r.Schedule.WeddingTime.String()
		}
		travel := ""
		if r.TravelMinutes != nil {
			travel = strconv.Itoa(*r.TravelMinutes)
		}
		rows = append(rows, export.Row{
			Values: map[string]string{
				"date":    r.Schedule.WeddingDate.Format("2006-01-02"),
				"wedding": wedding,
				"venue":   r.Schedule.Venue,
				"name":    r.Name,
				"role":    string(r.Role),
				"travel":  travel,
				"wake":    clockText(r.WakeDeadline),
				"depart":  clockText(r.DepartDeadline),
				"arrive":  clockText(r.ArrivalTarget),
				"status":  alertStatus(r),
			},
			Highlight: r.Overdue(),
		})
	}
	title := fmt.Sprintf("Dispatch alerts %s ~ %s (as of %s)", board.From, board.To, board.Now.Format("2006-01-02 15:04"))
	return export.Table{Title: title, Columns: alertColumns, Rows: rows}
}

func clockText(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}

func alertStatus(r dto.AlertRow) string {
	var parts []string
	for _, check := range []struct {
		label   string
		ok      bool
		overdue bool
	}{
		{"wake", r.WakeOK, r.WakeOverdue},
		{"depart", r.DepartOK, r.DepartOverdue},
		{"arrive", r.ArriveOK, r.ArriveOverdue},
	} {
		switch {
		case check.ok:
			parts = append(parts, check.label+" ok")
		case check.overdue:
			parts = append(parts, check.label+" OVERDUE")
		}
	}
	if len(parts) == 0 {
		return "pending"
	}
	return strings.Join(parts, ", ")
}
