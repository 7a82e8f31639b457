package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

var projectNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _.-]{0,127}$`)

// Validator validates upload and chat requests against configured limits.
type Validator struct {
	cfg config.FileUploadConfig
}

func NewUploadValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) ValidateIngest(req *entity.IngestRequest) error {
	if err := v.ValidateProjectName(req.Project); err != nil {
		return err
	}
	return v.ValidateUpload(req.Files)
}

func (v *Validator) ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: project", entity.ErrMissingField)
	}
	if !projectNameRe.MatchString(name) {
		return fmt.Errorf("%w: project name %q", entity.ErrInvalidParameter, name)
	}
	return nil
}

func (v *Validator) ValidateChat(req *entity.ChatRequest) error {
	if err := v.ValidateProjectName(req.Project); err != nil {
		return err
	}
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: query", entity.ErrMissingField)
	}
	return nil
}

// ValidateUpload checks count, per-file size and total size. Format
// support is not checked here: an unsupported or malformed file fails
// per-file in the batch report instead of rejecting the whole upload.
func (v *Validator) ValidateUpload(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: files", entity.ErrMissingField)
	}

	if len(files) > v.cfg.MaxFileCount {
		return fmt.Errorf("%w: maximum %d files allowed, got %d",
			entity.ErrTooManyFiles, v.cfg.MaxFileCount, len(files))
	}

	var totalSize int64
	for _, fh := range files {
		if fh.Filename == "" {
			return fmt.Errorf("%w: empty filename", entity.ErrInvalidFile)
		}
		if fh.Size > v.cfg.MaxFileSize {
			return fmt.Errorf("%w: %s is %d bytes, limit %d",
				entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
		}
		totalSize += fh.Size
	}

	if totalSize > v.cfg.MaxTotalSize {
		return fmt.Errorf("%w: %d bytes, limit %d",
			entity.ErrTotalSizeTooLarge, totalSize, v.cfg.MaxTotalSize)
	}

	return nil
}

// SanitizeFilename strips any path components and characters that are not
// safe to echo back in metadata or logs.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_', r == ' ':
			return r
		default:
			return '_'
		}
	}, name)
	return name
}
