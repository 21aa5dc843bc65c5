package chunkers

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"mentora/internal/rag/interfaces"
	"mentora/internal/rag/schema"
)

// chunkTags are the element types extracted as flat text chunks.
var chunkTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "li": true, "td": true, "th": true, "pre": true,
	"blockquote": true,
}

// HTMLChunker decomposes an HTML document into semantically labeled chunks.
// Non-table elements become one flat chunk each; tables are decomposed into
// per-cell, per-row and per-table views so that similarity search can match
// a specific fact, a whole row, or a table-level question.
type HTMLChunker struct{}

// NewHTMLChunker creates a new HTMLChunker.
func NewHTMLChunker() *HTMLChunker {
	return &HTMLChunker{}
}

// Chunk parses htmlContent and returns its chunks in document order, with
// table decompositions inlined at each table's position. It returns
// schema.ErrNoContent when no chunk survives and *schema.ParseError when the
// input cannot be parsed at all.
func (c *HTMLChunker) Chunk(htmlContent string) ([]schema.Chunk, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return nil, schema.ErrNoContent
	}
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &schema.ParseError{Err: err}
	}

	var chunks []schema.Chunk
	c.walk(doc, &chunks)

	if len(chunks) == 0 {
		return nil, schema.ErrNoContent
	}
	return chunks, nil
}

// walk visits nodes in document order. Tables are handled structurally and
// not descended into, so their cells are never emitted a second time as
// flat td/th chunks.
func (c *HTMLChunker) walk(n *html.Node, chunks *[]schema.Chunk) {
	if n.Type == html.ElementNode {
		if n.Data == "table" {
			*chunks = append(*chunks, decomposeTable(n)...)
			return
		}
		if chunkTags[n.Data] {
			if text := nodeText(n); text != "" {
				*chunks = append(*chunks, schema.Chunk{Text: text, Tag: n.Data})
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child, chunks)
	}
}

// decomposeTable emits three granularities per table: a header-labelled
// chunk per non-empty cell, a joined chunk per data row, and one summary
// chunk listing the headers. The first row is treated as the header row.
func decomposeTable(table *html.Node) []schema.Chunk {
	rows := collectRows(table)
	if len(rows) == 0 {
		return nil
	}

	headers := cellTexts(rows[0])

	var chunks []schema.Chunk
	for _, row := range rows[1:] {
		cells := cellTexts(row)

		for i, cell := range cells {
			if cell == "" || i >= len(headers) || headers[i] == "" {
				continue
			}
			chunks = append(chunks, schema.Chunk{
				Text: fmt.Sprintf("%s: %s", headers[i], cell),
				Tag:  schema.TagTableCell,
			})
		}

		if len(cells) > 0 {
			pairs := make([]string, len(headers))
			for i, header := range headers {
				value := ""
				if i < len(cells) {
					value = cells[i]
				}
				pairs[i] = fmt.Sprintf("%s: %s", header, value)
			}
			chunks = append(chunks, schema.Chunk{
				Text: strings.Join(pairs, ". "),
				Tag:  schema.TagTableRow,
			})
		}
	}

	if len(headers) > 0 {
		chunks = append(chunks, schema.Chunk{
			Text: "This table compares the following aspects: " + strings.Join(headers, ", "),
			Tag:  schema.TagTableSummary,
		})
	}
	return chunks
}

// collectRows gathers the tr elements of a table in document order, looking
// through thead/tbody/tfoot but not into nested tables.
func collectRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			switch child.Data {
			case "tr":
				rows = append(rows, child)
			case "table":
				// nested table; handled when the walk reaches it
			default:
				visit(child)
			}
		}
	}
	visit(table)
	return rows
}

// cellTexts returns the trimmed text of each td/th cell of a row, in column
// order. Empty cells keep their position so values stay aligned to headers.
func cellTexts(row *html.Node) []string {
	var texts []string
	for child := row.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && (child.Data == "td" || child.Data == "th") {
			texts = append(texts, nodeText(child))
		}
	}
	return texts
}

// nodeText extracts the text content of a node subtree with whitespace
// collapsed to single spaces.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// compile-time check to ensure HTMLChunker implements the Chunker interface
var _ interfaces.Chunker = (*HTMLChunker)(nil)
