package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

func GenerateCSVReport(headers []string, data [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(data); err != nil {
		return nil, fmt.Errorf("failed to write data rows: %w", err)
	}
	return buf.Bytes(), nil
}
