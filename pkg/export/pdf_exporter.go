package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const landscapeWidth = 277.0

// PDFExporter renders tables on landscape A4 pages. FontDir and Font name a
// UTF-8 TrueType font for non-Latin text; without them the core Arial font
// is used.
type PDFExporter struct {
	FontDir  string
	FontFile string
	Font     string
}

// NewPDFExporter constructs a PDF exporter using the core font.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the document. Highlighted rows get a shaded background and
// the header is repeated on every page.
func (e *PDFExporter) Render(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", e.FontDir)
	family := "Arial"
	if e.Font != "" && e.FontFile != "" {
		pdf.AddUTF8Font(e.Font, "", e.FontFile)
		pdf.AddUTF8Font(e.Font, "B", e.FontFile)
		family = e.Font
	}
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)

	widths := columnWidths(t.Columns)
	header := func() {
		pdf.SetFont(family, "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, label := range t.labels() {
			pdf.CellFormat(widths[i], 8, label, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(family, "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if t.Title != "" {
			pdf.SetFont(family, "B", 13)
			pdf.CellFormat(0, 9, t.Title, "", 1, "L", false, 0, "")
		}
		header()
	})
	pdf.AddPage()

	for _, row := range t.Rows {
		if row.Highlight {
			pdf.SetFillColor(255, 228, 225)
		}
		for i, value := range t.record(row) {
			pdf.CellFormat(widths[i], 7, value, "1", 0, "", row.Highlight, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(cols []Column) []float64 {
	widths := make([]float64, len(cols))
	fixed, flexible := 0.0, 0
	for i, col := range cols {
		widths[i] = col.Width
		if col.Width > 0 {
			fixed += col.Width
		} else {
			flexible++
		}
	}
	if flexible == 0 {
		return widths
	}
	share := (landscapeWidth - fixed) / float64(flexible)
	if share < 10 {
		share = 10
	}
	for i := range widths {
		if widths[i] <= 0 {
			widths[i] = share
		}
	}
	return widths
}
