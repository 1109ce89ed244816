// Package lang holds the per-language tree-sitter extractors described in
// spec.md §4.A. Each extractor is a pure function of (tree, source, path)
// that emits Symbols into a shared bag; none perform I/O and all are safe
// to call concurrently from independent analyzer workers, grounded on the
// tree-sitter idiom in the retrieval pack's petar-djukic-go-coder example.
package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/doge-run/doge/pkg/repomap"
)

// Extractor walks a parsed syntax tree and emits Symbols for one file.
type Extractor interface {
	// Ext is the set of file extensions (with leading dot) this
	// extractor claims, e.g. [".go"].
	Ext() []string
	// SitterLang returns the tree-sitter grammar, or nil for heuristic
	// (non-tree-sitter) extractors such as Markdown.
	SitterLang() *sitter.Language
	// Extract walks root (nil for heuristic extractors) and source and
	// returns the symbols for path.
	Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol
}

// Registry is keyed by lowercase file extension.
var registry = map[string]Extractor{}

// Register adds an extractor to the shared registry. Called from each
// language file's package init.
func Register(e Extractor) {
	for _, ext := range e.Ext() {
		registry[ext] = e
	}
}

// For returns the extractor registered for a file extension (with leading
// dot), or nil if unsupported.
func For(ext string) Extractor {
	return registry[strings.ToLower(ext)]
}

// Extensions returns every extension with a registered extractor, in no
// particular order.
func Extensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	return exts
}

// stopwords filtered out of doc-comment keyword extraction (spec.md §3).
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "of": true,
	"to": true, "for": true, "and": true, "or": true, "in": true, "it": true,
	"this": true, "that": true, "be": true, "with": true, "as": true, "on": true,
}

// extractKeywords tokenises doc-comment text into lowercased, stopword-
// filtered, deduplicated keywords (spec.md §3).
func extractKeywords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_')
	})
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		w := strings.ToLower(f)
		if len(w) < 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// docCommentAbove collects comment text from the 1–3 source lines
// immediately above a symbol's start line (spec.md §3), given the set of
// comment-line texts keyed by 1-based line number.
func docCommentAbove(comments map[int]string, startLine int) string {
	var parts []string
	for ln := startLine - 1; ln >= startLine-3 && ln >= 1; ln-- {
		text, ok := comments[ln]
		if !ok {
			break
		}
		parts = append([]string{text}, parts...)
	}
	return strings.Join(parts, " ")
}

// lineCount returns the number of lines in source (spec.md §3 file_total_lines).
func lineCount(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	if source[len(source)-1] == '\n' {
		n--
	}
	return n
}

// firstIdentifier returns the first identifier/name-like descendant of n,
// used when a node lacks an explicit name field (spec.md §4.A "Edge
// policies").
func firstIdentifier(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	var walk func(*sitter.Node) *sitter.Node
	walk = func(n *sitter.Node) *sitter.Node {
		switch n.Type() {
		case "identifier", "type_identifier", "field_identifier",
			"property_identifier", "name":
			return n
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if found := walk(n.Child(i)); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(n)
}

// runQuery executes a tree-sitter query pattern against root and returns,
// for each match, the node captured by each named capture.
func runQuery(pattern string, sl *sitter.Language, root *sitter.Node, source []byte) []map[string]*sitter.Node {
	q, err := sitter.NewQuery([]byte(pattern), sl)
	if err != nil {
		return nil
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q, root)

	var results []map[string]*sitter.Node
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		row := make(map[string]*sitter.Node, len(m.Captures))
		for _, c := range m.Captures {
			row[q.CaptureNameForId(c.Index)] = c.Node
		}
		results = append(results, row)
	}
	return results
}

func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(source)
}

func span(n *sitter.Node) (startLine, startCol, endLine, endCol int) {
	sp := n.StartPoint()
	ep := n.EndPoint()
	return int(sp.Row) + 1, int(sp.Column) + 1, int(ep.Row) + 1, int(ep.Column) + 1
}
