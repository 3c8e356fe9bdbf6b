package common

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resumatch/internal/errors"
	"resumatch/internal/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadDocument(t *testing.T) {
	fp := NewFileProcessor(errors.NewDiscardLogger(), 1024)
	ctx := context.Background()

	t.Run("plain text", func(t *testing.T) {
		text, err := fp.ReadDocument(ctx, writeTemp(t, "resume.txt", "Python and SQL\n"))
		require.NoError(t, err)
		assert.Equal(t, "Python and SQL\n", text)
	})

	t.Run("html", func(t *testing.T) {
		html := `<html><body><h1>Jane Doe</h1><p>Go and  SQL</p><script>var x = 1;</script></body></html>`
		text, err := fp.ReadDocument(ctx, writeTemp(t, "resume.html", html))
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe\nGo and SQL", text)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := fp.ReadDocument(ctx, writeTemp(t, "resume.pdf", "%PDF-1.4"))
		var appErr *errors.AppError
		require.True(t, stderrors.As(err, &appErr))
		assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := fp.ReadDocument(ctx, writeTemp(t, "big.txt", string(bytes.Repeat([]byte("a"), 2048))))
		var appErr *errors.AppError
		require.True(t, stderrors.As(err, &appErr))
		assert.Equal(t, "FILE_TOO_LARGE", appErr.Code)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := fp.ReadDocument(ctx, filepath.Join(t.TempDir(), "missing.txt"))
		assert.Error(t, err)
	})
}

func TestReadDocumentsKeepsOrder(t *testing.T) {
	fp := NewFileProcessor(nil, 0)
	a := writeTemp(t, "a.txt", "first")
	b := writeTemp(t, "b.md", "# second")

	contents, err := fp.ReadDocuments(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "# second"}, contents)
}

func TestOutputHandler(t *testing.T) {
	listing := types.SkillListing{Source: "test", Count: 2, Skills: []string{"go", "sql"}}

	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		oh := NewOutputHandler(nil).WithWriter(&buf)
		require.NoError(t, oh.HandleOutput(listing, CommandConfig{OutputFormat: "json"}))
		assert.Contains(t, buf.String(), `"skills": [`)
	})

	t.Run("file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "nested", "skills.json")
		oh := NewOutputHandler(errors.NewDiscardLogger())
		require.NoError(t, oh.HandleOutput(listing, CommandConfig{OutputFile: out, OutputFormat: "json"}))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"source": "test"`)
	})

	t.Run("unknown format", func(t *testing.T) {
		oh := NewOutputHandler(nil).WithWriter(&bytes.Buffer{})
		assert.Error(t, oh.HandleOutput(listing, CommandConfig{OutputFormat: "xml"}))
	})
}

func TestRunDocumentCommand(t *testing.T) {
	path := writeTemp(t, "resume.txt", "hello")
	out := filepath.Join(t.TempDir(), "out.json")

	var logged bool
	err := RunDocumentCommand(context.Background(), nil,
		CommandConfig{OutputFile: out, OutputFormat: "json"},
		[]string{path},
		func(contents []string) (string, error) { return contents[0], nil },
		func(_ context.Context, in string) (types.SkillListing, error) {
			return types.SkillListing{Source: in, Count: 0, Skills: []string{}}, nil
		},
		func(string, CommandConfig) { logged = true },
	)
	require.NoError(t, err)
	assert.True(t, logged)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source": "hello"`)
}
