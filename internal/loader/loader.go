// Package loader converts raw uploaded files into plain text segments with
// page/position metadata. Dispatch is purely on the file extension over a
// closed set of supported formats; malformed content is reported as a
// LoadError, never a crash. Parsing happens fully in memory from the
// uploaded bytes, so there are no temp files to clean up.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Loader struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load converts one uploaded file into text segments. It fails with
// entity.ErrUnsupportedFormat for extensions outside the supported set and
// with *entity.LoadError when the content cannot be parsed.
func (l *Loader) Load(ctx context.Context, file entity.FileData) ([]entity.Segment, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))

	var (
		segments []entity.Segment
		err      error
	)

	switch ext {
	case ".pdf":
		segments, err = loadPDF(file.Content)
	case ".docx":
		segments, err = loadDOCX(file.Content)
	case ".epub":
		segments, err = loadEPUB(file.Content)
	case ".txt":
		segments, err = loadTXT(file.Content)
	case ".pptx":
		segments, err = loadPPTX(file.Content)
	case ".xlsx":
		segments, err = loadXLSX(file.Content)
	case ".csv":
		segments, err = loadCSV(file.Content)
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return nil, &entity.LoadError{Filename: file.Filename, Err: err}
	}

	segments = dropEmpty(segments)
	if len(segments) == 0 {
		return nil, &entity.LoadError{Filename: file.Filename, Err: fmt.Errorf("no extractable text")}
	}

	ctxzap.Debug(ctx, "file loaded",
		zap.String("filename", file.Filename),
		zap.String("format", ext),
		zap.Int("segment_count", len(segments)),
	)

	return segments, nil
}

func dropEmpty(segments []entity.Segment) []entity.Segment {
	out := segments[:0]
	for _, s := range segments {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text != "" {
			out = append(out, s)
		}
	}
	return out
}
