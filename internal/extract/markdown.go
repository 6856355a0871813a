package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown strips markup by walking the goldmark AST and keeping
// only text segments, so headings and fences do not pollute the chunks.
func extractMarkdown(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid utf-8 text")
	}
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var parts []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if fenced, ok := node.(*ast.FencedCodeBlock); ok {
			var code strings.Builder
			for i := 0; i < fenced.Lines().Len(); i++ {
				line := fenced.Lines().At(i)
				code.Write(line.Value(data))
			}
			if trimmed := strings.TrimSpace(code.String()); trimmed != "" {
				parts = append(parts, trimmed)
			}
			continue
		}
		if txt := nodeText(node, data); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, "\n\n"), nil
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
	// Adjacent inline segments each carry their own separator; collapse
	// the runs so "some *emphasized* text" reads back single-spaced.
	return strings.Join(strings.Fields(sb.String()), " ")
}

func init() {
	Register(".md", extractMarkdown)
	Register(".markdown", extractMarkdown)
}
