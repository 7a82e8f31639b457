package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/unidoc/unioffice/spreadsheet"
)

// loadXLSX renders each worksheet as one segment of comma-joined rows, the
// sheet name kept as section metadata.
func loadXLSX(content []byte) ([]entity.Segment, error) {
	wb, err := spreadsheet.Read(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("parse xlsx: %w", err)
	}
	defer wb.Close()

	var segments []entity.Segment
	for _, sheet := range wb.Sheets() {
		var sb strings.Builder
		for _, row := range sheet.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				cells = append(cells, cell.GetFormattedValue())
			}
			line := strings.TrimSpace(strings.Join(cells, ", "))
			if line != "" {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
		segments = append(segments, entity.Segment{
			Text:    sb.String(),
			Section: sheet.Name(),
		})
	}

	return segments, nil
}

func loadCSV(content []byte) ([]entity.Segment, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	// Uploads vary in column counts per row; accept ragged records.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var sb strings.Builder
	for _, record := range records {
		sb.WriteString(strings.Join(record, ", "))
		sb.WriteString("\n")
	}

	return []entity.Segment{{Text: sb.String()}}, nil
}
