// Package reports renders tabular exports as CSV, Excel or PDF.
package reports

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts csv, excel (or xlsx) and pdf, case-insensitively. An
// empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	default:
		return "csv"
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ReportOptions contains all report configuration options
type ReportOptions struct {
	Title       string
	HeaderColor string // hex, e.g. "#E0E0E0"
	SheetName   string
}

type ReportOption func(*ReportOptions)

func WithTitle(title string) ReportOption {
	return func(opts *ReportOptions) {
		opts.Title = title
	}
}

func WithHeaderColor(color string) ReportOption {
	return func(opts *ReportOptions) {
		opts.HeaderColor = color
	}
}

func WithSheetName(name string) ReportOption {
	return func(opts *ReportOptions) {
		opts.SheetName = name
	}
}

func getDefaultOptions() *ReportOptions {
	return &ReportOptions{
		HeaderColor: "#E0E0E0",
		SheetName:   "Sheet1",
	}
}

// GenerateReport renders headers and rows in the given format. Every row must
// have as many cells as there are headers.
func GenerateReport(format Format, headers []string, data [][]string, opts ...ReportOption) ([]byte, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("headers cannot be empty")
	}
	for i, row := range data {
		if len(row) != len(headers) {
			return nil, fmt.Errorf("row %d length (%d) does not match header length (%d)", i, len(row), len(headers))
		}
	}

	options := getDefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatExcel:
		return GenerateExcelReport(headers, data, options)
	case FormatPDF:
		return GeneratePDFReport(headers, data, options)
	case FormatCSV:
		return GenerateCSVReport(headers, data)
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}
