package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	appErr "github.com/examgen/examgen/internal/pkg/errors"
)

// Page is one page of extracted text. Plain text and markdown sources
// produce a single synthetic page.
type Page struct {
	Number int
	Text   string
}

type Result struct {
	Pages []Page
}

func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

func (r *Result) PageCount() int {
	return len(r.Pages)
}

// Extract pulls text out of an uploaded material. format is the file
// extension without the dot ("pdf", "md", "txt"); the caller derives it
// from the original filename since stored keys are opaque.
func Extract(r io.ReaderAt, size int64, format string) (*Result, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "pdf":
		return extractPDF(r, size)
	case "md", "markdown":
		return extractMarkdown(r, size)
	case "txt", "text":
		return extractPlain(r, size)
	default:
		return nil, fmt.Errorf("%w: %s", appErr.ErrUnsupportedFile, format)
	}
}

func FormatFromFilename(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

func extractPlain(r io.ReaderAt, size int64) (*Result, error) {
	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return &Result{}, nil
	}
	return &Result{Pages: []Page{{Number: 1, Text: text}}}, nil
}

// alphaRatio is the share of letters among non-space characters. Garbled
// extractions (bad font maps, scanned pages) score low.
func alphaRatio(s string) float64 {
	var letters, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}
