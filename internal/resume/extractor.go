package resume

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"resumatch/internal/errors"
)

const (
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEMSWord   = "application/msword"
	MIMEText     = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEHTML     = "text/html"
)

// Extractor turns a document into plain text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, r io.Reader) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, r io.Reader) (string, error) {
	return f(ctx, r)
}

// Registry maps MIME types to extractors. Binary formats (pdf, docx, msword)
// have no built-in extractor and must be registered by the embedding
// application.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry returns a registry with the plain text, markdown and HTML
// extractors installed.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	r.Register(MIMEText, ExtractorFunc(extractPlain))
	r.Register(MIMEMarkdown, ExtractorFunc(extractPlain))
	r.Register(MIMEHTML, ExtractorFunc(ExtractHTML))
	return r
}

func (r *Registry) Register(mime string, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[normalizeMIME(mime)] = e
}

// Supports reports whether an extractor is registered for mime.
func (r *Registry) Supports(mime string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[normalizeMIME(mime)]
	return ok
}

// Extract returns the text of the document. Unsupported MIME types yield ""
// and no error.
func (r *Registry) Extract(ctx context.Context, src io.Reader, mime string) (string, error) {
	r.mu.RLock()
	e, ok := r.extractors[normalizeMIME(mime)]
	r.mu.RUnlock()
	if !ok {
		return "", nil
	}
	text, err := e.Extract(ctx, src)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to extract document text", err).
			WithContext("mime", mime)
	}
	return text, nil
}

func normalizeMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

func extractPlain(_ context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExtractHTML returns the visible text of an HTML document, one block per line.
func ExtractHTML(_ context.Context, r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, pre").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " "), nil
	}
	return strings.Join(lines, "\n"), nil
}
