// Package markdown prepares README material for LLM prompts: a heading
// outline and a byte-bounded excerpt that truncates at section boundaries
// instead of mid-sentence.
package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Excerpter parses markdown once per call and answers outline and excerpt
// requests over it.
type Excerpter struct {
	parser goldmark.Markdown
}

// NewExcerpter creates an excerpter with a goldmark parser configured for
// auto heading IDs, which the TOC inspection relies on.
func NewExcerpter() *Excerpter {
	return &Excerpter{
		parser: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Outline returns the document's heading hierarchy down to H2, one entry
// per heading, formatted like "# Title" / "## Section". Documents without
// headings produce an empty outline.
func (e *Excerpter) Outline(source []byte) ([]string, error) {
	doc := e.parser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	var outline []string
	collectOutline(tree.Items, 1, &outline)
	return outline, nil
}

func collectOutline(items toc.Items, depth int, out *[]string) {
	for _, item := range items {
		*out = append(*out, fmt.Sprintf("%s %s", strings.Repeat("#", depth), string(item.Title)))
		collectOutline(item.Items, depth+1, out)
	}
}

// Excerpt returns the leading portion of the document, at most maxBytes
// long, cut at the latest H1/H2 boundary that fits. Documents without
// headings, or whose first section already exceeds the budget, are cut at
// the last line break inside the budget.
func (e *Excerpter) Excerpt(source []byte, maxBytes int) string {
	if maxBytes <= 0 || len(source) <= maxBytes {
		return strings.TrimSpace(string(source))
	}

	doc := e.parser.Parser().Parse(text.NewReader(source))

	// Collect the byte offsets where each H1/H2 section starts. The AST
	// segment begins at the heading text, past the ATX marker, so walk
	// back to the start of the line to cut before the marker too.
	var boundaries []int
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			if heading.Level <= 2 && heading.Lines().Len() > 0 {
				boundaries = append(boundaries, lineStart(source, heading.Lines().At(0).Start))
			}
		}
		return ast.WalkContinue, nil
	})

	// Cut at the latest section boundary inside the budget.
	cut := 0
	for _, b := range boundaries {
		if b > maxBytes {
			break
		}
		cut = b
	}
	if cut == 0 {
		cut = lastLineBreak(source, maxBytes)
	}

	return strings.TrimSpace(string(source[:cut]))
}

// lineStart walks back from offset to the byte following the previous
// newline, i.e. the start of the line offset sits on.
func lineStart(source []byte, offset int) int {
	for offset > 0 && source[offset-1] != '\n' {
		offset--
	}
	return offset
}

// lastLineBreak finds the final newline at or before limit, falling back to
// the raw limit for documents that are one long line.
func lastLineBreak(source []byte, limit int) int {
	for i := limit; i > 0; i-- {
		if source[i-1] == '\n' {
			return i
		}
	}
	return limit
}
