package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown walks the goldmark AST and keeps plain prose: headings
// are kept as context lines, code fences are dropped (course slides in
// markdown carry illustrative snippets that only pollute retrieval).
func extractMarkdown(r io.ReaderAt, size int64) (*Result, error) {
	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read markdown file: %w", err)
	}
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			heading := string(n.Text(data))
			if heading != "" {
				blocks = append(blocks, heading)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			continue
		default:
			txt := nodeText(node, data)
			if txt != "" {
				blocks = append(blocks, txt)
			}
		}
	}
	joined := strings.TrimSpace(strings.Join(blocks, "\n\n"))
	if joined == "" {
		return &Result{}, nil
	}
	return &Result{Pages: []Page{{Number: 1, Text: joined}}}, nil
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
