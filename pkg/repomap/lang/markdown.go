package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/doge-run/doge/pkg/repomap"
)

func init() {
	Register(markdownExtractor{})
}

// markdownExtractor is a line-oriented heuristic walker, not a
// tree-sitter extractor: the example pack's module graph ships no
// Markdown grammar (SPEC_FULL.md DOMAIN STACK). Headings become
// KindModule symbols spanning to the next heading of equal-or-higher
// level; this is the only stdlib-only extractor in the language table.
type markdownExtractor struct{}

func (markdownExtractor) Ext() []string                { return []string{".md", ".markdown"} }
func (markdownExtractor) SitterLang() *sitter.Language { return nil }

func (markdownExtractor) Extract(path string, source []byte, _ *sitter.Node) []repomap.Symbol {
	lines := strings.Split(string(source), "\n")
	total := lineCount(source)

	type heading struct {
		level int
		name  string
		line  int
	}
	var headings []heading
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		if level == 0 || level > 6 {
			continue
		}
		if level < len(trimmed) && trimmed[level] != ' ' {
			continue
		}
		headings = append(headings, heading{
			level: level,
			name:  strings.TrimSpace(trimmed[level:]),
			line:  i + 1,
		})
	}

	var out []repomap.Symbol
	for idx, h := range headings {
		endLine := total
		for _, next := range headings[idx+1:] {
			if next.level <= h.level {
				endLine = next.line - 1
				break
			}
		}
		if endLine < h.line {
			endLine = h.line
		}
		out = append(out, repomap.Symbol{
			Name:           h.name,
			Kind:           repomap.KindModule,
			File:           path,
			StartLine:      h.line,
			StartCol:       1,
			EndLine:        endLine,
			EndCol:         1,
			FileTotalLines: total,
			Keywords:       extractKeywords(h.name),
		})
	}
	return out
}
