package ingest

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// markdownExtensions are the upload filename extensions treated as markdown.
var markdownExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
}

// IsMarkdown reports whether a filename should be parsed as markdown.
func IsMarkdown(filename string) bool {
	_, ok := markdownExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ExtractText flattens markdown content into plain text so the sentence
// chunker sees prose rather than markup. Headings become standalone
// sentences, list items and paragraphs are separated by spaces, and code
// blocks are carried verbatim.
func ExtractText(content []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	reader := text.NewReader(content)
	doc := md.Parser().Parse(reader)

	var builder strings.Builder

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			heading := nodeText(node, content)
			if heading != "" {
				appendSentence(&builder, heading)
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			if builder.Len() > 0 {
				builder.WriteString(" ")
			}
			return ast.WalkContinue, nil

		case *ast.Text:
			builder.Write(node.Segment.Value(content))
			return ast.WalkContinue, nil

		case *ast.String:
			builder.Write(node.Value)
			return ast.WalkContinue, nil

		case *ast.CodeBlock:
			writeCodeLines(&builder, node.Lines(), content)
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			writeCodeLines(&builder, node.Lines(), content)
			return ast.WalkSkipChildren, nil

		default:
			return ast.WalkContinue, nil
		}
	})

	return strings.TrimSpace(collapseSpaces(builder.String()))
}

// appendSentence writes s terminated with a period so headings form their own
// sentences for the chunker.
func appendSentence(builder *strings.Builder, s string) {
	if builder.Len() > 0 {
		builder.WriteString(" ")
	}
	builder.WriteString(s)
	if !strings.HasSuffix(s, ".") {
		builder.WriteString(".")
	}
}

func writeCodeLines(builder *strings.Builder, lines *text.Segments, content []byte) {
	if builder.Len() > 0 {
		builder.WriteString(" ")
	}
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		builder.WriteString(strings.TrimRight(string(line.Value(content)), "\n"))
		builder.WriteString(" ")
	}
}

// nodeText extracts the plain text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var builder strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			builder.Write(v.Segment.Value(content))
		case *ast.String:
			builder.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(builder.String())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
