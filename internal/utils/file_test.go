package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"resume.txt", "text/plain"},
		{"resume.MD", "text/markdown"},
		{"resume.html", "text/html"},
		{"resume.pdf", "application/pdf"},
		{"resume.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"resume.doc", "application/msword"},
		{"resume", "text/plain"},
		{"resume.rtf", "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, MIMEType(tt.filename))
		})
	}
}

func TestIsTextFile(t *testing.T) {
	assert.True(t, IsTextFile("cv.txt"))
	assert.True(t, IsTextFile("cv.htm"))
	assert.False(t, IsTextFile("cv.pdf"))
}

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	assert.NoError(t, ValidateInputFile(path))
	assert.Error(t, ValidateInputFile(""))
	assert.Error(t, ValidateInputFile(dir))
	assert.Error(t, ValidateInputFile(filepath.Join(dir, "missing.txt")))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
}
