package loader

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

func loadTXT(content []byte) ([]entity.Segment, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("parse txt: not valid UTF-8")
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return []entity.Segment{{Text: text}}, nil
}
