package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"resumatch/internal/errors"
	"resumatch/internal/resume"
	"resumatch/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	extractors  *resume.Registry
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. maxFileSize <= 0
// disables the size check.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	return &FileProcessor{
		logger:      logger,
		extractors:  resume.NewRegistry(),
		maxFileSize: maxFileSize,
	}
}

// Extractors exposes the document registry so callers can add binary formats.
func (fp *FileProcessor) Extractors() *resume.Registry {
	return fp.extractors
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	data, err := fp.readBytes(filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (fp *FileProcessor) readBytes(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	var src io.Reader = file
	if fp.maxFileSize > 0 {
		src = io.LimitReader(file, fp.maxFileSize+1)
	}
	content, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if fp.maxFileSize > 0 && int64(len(content)) > fp.maxFileSize {
		return nil, errors.NewValidationError("FILE_TOO_LARGE",
			fmt.Sprintf("File %s exceeds the %s limit", filename, utils.FormatFileSize(fp.maxFileSize)), nil)
	}

	return content, nil
}

// ReadDocument returns the plain text of a resume document. The format is
// chosen by extension; formats without a registered extractor yield an
// error rather than an empty resume.
func (fp *FileProcessor) ReadDocument(ctx context.Context, filename string) (string, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return "", errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	mime := utils.MIMEType(filename)
	if !fp.extractors.Supports(mime) {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("No text extractor for %s (%s)", filename, mime), nil)
	}
	if !utils.IsTextFile(filename) && fp.logger != nil {
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}

	content, err := fp.readBytes(filename)
	if err != nil {
		return "", err
	}

	text, err := fp.extractors.Extract(ctx, strings.NewReader(string(content)), mime)
	if err != nil {
		return "", err
	}
	if fp.logger != nil {
		fp.logger.Debug("Document read",
			"filename", filename,
			"mime", mime,
			"size", utils.FormatFileSize(int64(len(content))),
			"chars", len(text))
	}
	return text, nil
}

// ReadDocuments reads several documents in order
func (fp *FileProcessor) ReadDocuments(ctx context.Context, filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))
	for i, filename := range filenames {
		text, err := fp.ReadDocument(ctx, filename)
		if err != nil {
			return nil, err
		}
		contents[i] = text
	}
	return contents, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
