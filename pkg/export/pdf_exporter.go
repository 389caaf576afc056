package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a Dataset as a landscape table. Matrix reports carry
// four columns per calendar date, so the page is laid out wide with the
// first (name) column given extra room.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	pageWidth      = 277.0 // A4 landscape minus margins
	nameColWidth   = 45.0
	headerFontSize = 8.0
	bodyFontSize   = 7.5
)

func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 9, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := pageWidth / float64(len(data.Headers))
	dataColWidth := colWidth
	if len(data.Headers) > 1 {
		dataColWidth = (pageWidth - nameColWidth) / float64(len(data.Headers)-1)
	}
	width := func(i int) float64 {
		if i == 0 && len(data.Headers) > 1 {
			return nameColWidth
		}
		return dataColWidth
	}

	pdf.SetFont("Arial", "B", headerFontSize)
	for i, header := range data.Headers {
		pdf.CellFormat(width(i), 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", bodyFontSize)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(width(i), 6, row[header], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
