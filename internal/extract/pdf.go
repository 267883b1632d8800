package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractions where fewer than this share of characters are letters are
// treated as garbled and dropped page by page.
const minPageAlphaRatio = 0.3

func extractPDF(r io.ReaderAt, size int64) (*Result, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	total := reader.NumPage()
	result := &Result{Pages: make([]Page, 0, total)}
	var fonts map[string]*pdf.Font
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A single broken page should not sink the document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" || alphaRatio(text) < minPageAlphaRatio {
			continue
		}
		result.Pages = append(result.Pages, Page{Number: i, Text: text})
	}
	return result, nil
}
