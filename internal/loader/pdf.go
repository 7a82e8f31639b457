package loader

import (
	"bytes"
	"fmt"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/ledongthuc/pdf"
)

// loadPDF extracts plain text page by page. The pdf library panics on some
// malformed documents, so the recover turns those into parse errors.
func loadPDF(content []byte) (segments []entity.Segment, err error) {
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from page %d: %w", pageNum, err)
		}

		segments = append(segments, entity.Segment{
			Text: text,
			Page: pageNum,
		})
	}

	return segments, nil
}
