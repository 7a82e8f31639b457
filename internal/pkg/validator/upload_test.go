package validator

import (
	"mime/multipart"
	"testing"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/config"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/stretchr/testify/assert"
)

func testValidator() *Validator {
	return NewUploadValidator(config.FileUploadConfig{
		MaxFileSize:  1000,
		MaxTotalSize: 2500,
		MaxFileCount: 3,
	})
}

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidateUpload_Limits(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.ValidateUpload([]*multipart.FileHeader{header("a.txt", 100)}))

	err := v.ValidateUpload(nil)
	assert.ErrorIs(t, err, entity.ErrMissingField)

	err = v.ValidateUpload([]*multipart.FileHeader{
		header("a.txt", 1), header("b.txt", 1), header("c.txt", 1), header("d.txt", 1),
	})
	assert.ErrorIs(t, err, entity.ErrTooManyFiles)

	err = v.ValidateUpload([]*multipart.FileHeader{header("big.pdf", 1001)})
	assert.ErrorIs(t, err, entity.ErrFileTooLarge)

	err = v.ValidateUpload([]*multipart.FileHeader{header("a.pdf", 900), header("b.pdf", 900), header("c.pdf", 900)})
	assert.ErrorIs(t, err, entity.ErrTotalSizeTooLarge)

	err = v.ValidateUpload([]*multipart.FileHeader{header("", 10)})
	assert.ErrorIs(t, err, entity.ErrInvalidFile)
}

func TestValidateProjectName(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.ValidateProjectName("my-project"))
	assert.NoError(t, v.ValidateProjectName("Docs 2.0"))

	assert.ErrorIs(t, v.ValidateProjectName(""), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateProjectName("../escape"), entity.ErrInvalidParameter)
	assert.ErrorIs(t, v.ValidateProjectName(" leading-space"), entity.ErrInvalidParameter)
}

func TestValidateChat(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.ValidateChat(&entity.ChatRequest{Project: "docs", Query: "hello?"}))
	assert.ErrorIs(t, v.ValidateChat(&entity.ChatRequest{Project: "docs", Query: "  "}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateChat(&entity.ChatRequest{Query: "hello?"}), entity.ErrMissingField)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFilename("../../report.pdf"))
	assert.Equal(t, "notes_2024.txt", SanitizeFilename("notes_2024.txt"))
	assert.Equal(t, "we_ird_.csv", SanitizeFilename("we|ird*.csv"))
}
