package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/unidoc/unioffice/document"
)

// loadDOCX flattens a Word document to paragraphs of plain text. One
// segment per paragraph preserves the source order for chunking.
func loadDOCX(content []byte) ([]entity.Segment, error) {
	doc, err := document.Read(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	var segments []entity.Segment
	for _, para := range doc.Paragraphs() {
		var sb strings.Builder
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		segments = append(segments, entity.Segment{Text: sb.String()})
	}

	return segments, nil
}
