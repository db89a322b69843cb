package reports

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfPageWidth  = 210.0
	pdfRowHeight  = 7.0
	pdfHeaderFont = 11.0
	pdfDataFont   = 10.0
)

func GeneratePDFReport(headers []string, data [][]string, opts *ReportOptions) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	colWidth := (pdfPageWidth - 2*pdfMargin) / float64(len(headers))
	r, g, b := hexToRGB(opts.HeaderColor)

	// The header row is repeated on every page.
	pdf.SetHeaderFunc(func() {
		if opts.Title != "" && pdf.PageNo() == 1 {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, tr(opts.Title), "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Arial", "B", pdfHeaderFont)
		pdf.SetFillColor(r, g, b)
		for _, h := range headers {
			pdf.CellFormat(colWidth, pdfRowHeight+1, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", pdfDataFont)
	})

	pdf.AddPage()
	for _, row := range data {
		for _, v := range row {
			align := "L"
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				align = "R"
			}
			pdf.CellFormat(colWidth, pdfRowHeight, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// hexToRGB parses "#RRGGBB"; anything else yields light gray.
func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 224, 224, 224
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 224, 224, 224
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}
