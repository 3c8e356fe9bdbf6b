package resume

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resumatch/internal/types"
)

func TestExtractYears(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"I have 5 years of experience in Go", 5},
		{"10+ years of experience", 10},
		{"1 year of experience", 1},
		{"Professional Experience of 7 years", 7},
		{"worked for 3 years at Acme", 3},
		{"4 years of experience and worked for 9 years", 4},
		{"no numbers here", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractYears(tt.text))
		})
	}
}

func TestParse(t *testing.T) {
	vocab := types.NewSkillSet("python", "sql", "project management")
	rec := Parse("Python and SQL, some project management. 3 years of experience.", vocab)

	assert.Equal(t, []string{"project management", "python", "sql"}, rec.Skills.Sorted())
	assert.Equal(t, 3, rec.YearsExperience)
	assert.Contains(t, rec.RawText, "Python")
}

func TestRegistryBuiltins(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	text, err := reg.Extract(ctx, strings.NewReader("plain resume"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "plain resume", text)

	html := `<html><head><style>p{}</style></head><body><h1>Jane Doe</h1><ul><li>Python</li><li>SQL</li></ul><script>x()</script></body></html>`
	text, err = reg.Extract(ctx, strings.NewReader(html), MIMEHTML)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nPython\nSQL", text)
}

func TestRegistryUnsupportedTypesYieldEmpty(t *testing.T) {
	reg := NewRegistry()

	for _, mime := range []string{MIMEPDF, MIMEDOCX, MIMEMSWord, "image/png"} {
		t.Run(mime, func(t *testing.T) {
			assert.False(t, reg.Supports(mime))
			text, err := reg.Extract(context.Background(), strings.NewReader("%PDF-1.4"), mime)
			require.NoError(t, err)
			assert.Empty(t, text)
		})
	}
}

func TestRegistryCustomExtractor(t *testing.T) {
	reg := NewRegistry()
	reg.Register(MIMEPDF, ExtractorFunc(func(_ context.Context, r io.Reader) (string, error) {
		return "from pdf", nil
	}))
	reg.Register(MIMEMSWord, ExtractorFunc(func(context.Context, io.Reader) (string, error) {
		return "", fmt.Errorf("corrupt")
	}))

	text, err := reg.Extract(context.Background(), strings.NewReader(""), MIMEPDF)
	require.NoError(t, err)
	assert.Equal(t, "from pdf", text)

	_, err = reg.Extract(context.Background(), strings.NewReader(""), MIMEMSWord)
	assert.Error(t, err)
}
