// Package query implements the Repomap Query Engine (spec.md §4.D): a
// single search(repomap, args) operation filtering, scoring, and
// paginating Symbols by structural and lexical predicates.
package query

import (
	"os"
	"sort"
	"strings"

	"github.com/doge-run/doge/pkg/repomap"
)

// Field is one of the fields a name/keyword_search term may match against.
type Field string

const (
	FieldName    Field = "name"
	FieldKeyword Field = "keyword"
	FieldCode    Field = "code"
	FieldDoc     Field = "doc"
)

var allFields = []Field{FieldName, FieldKeyword, FieldCode, FieldDoc}

// SortKey is one of the supported sort_by values (spec.md §4.D).
type SortKey string

const (
	SortFileLines     SortKey = "file_lines"
	SortFunctionLines SortKey = "function_lines"
	SortSymbolCount   SortKey = "symbol_count"
	SortFilePath      SortKey = "file_path"
)

// Args is the closed set of query filters (spec.md §4.D).
type Args struct {
	FilePattern         string
	MinFileLines        *int
	MaxFileLines        *int
	MinFunctionLines    *int
	MaxFunctionLines    *int
	SymbolKinds         []repomap.Kind
	MinSymbolsPerFile   *int
	MaxSymbolsPerFile   *int
	Name                []string
	KeywordSearch       []string
	Fields              []Field
	SortBy              SortKey
	SortDesc            *bool // default true
	Limit               int   // default 20
	Cursor              int   // page index, 0-based
	PageSize            int
	ResponseBudgetChars int
	IncludeSnippets     *bool // default true
	ContextLines        int
	SnippetMaxChars     int
	MatchScoreThreshold float64

	// SourceLoader reads a file's content for code/doc field matching and
	// snippet extraction. Defaults to os.ReadFile.
	SourceLoader func(path string) ([]byte, error)
}

func (a Args) sortDesc() bool {
	if a.SortDesc == nil {
		return true
	}
	return *a.SortDesc
}

func (a Args) includeSnippets() bool {
	if a.IncludeSnippets == nil {
		return true
	}
	return *a.IncludeSnippets
}

func (a Args) limit() int {
	if a.Limit > 0 {
		return a.Limit
	}
	return 20
}

func (a Args) fields() []Field {
	if len(a.Fields) == 0 {
		return allFields
	}
	return a.Fields
}

func (a Args) loader() func(string) ([]byte, error) {
	if a.SourceLoader != nil {
		return a.SourceLoader
	}
	return os.ReadFile
}

// MatchSpan describes which field/line/column matched a query term.
type MatchSpan struct {
	Field Field
	Line  int
	Col   int
}

// SymbolHit is one surviving Symbol with its optional score/snippet.
type SymbolHit struct {
	Symbol     repomap.Symbol
	Snippet    string
	MatchScore float64
	Matches    []MatchSpan
}

// FileHit groups surviving symbols by file (spec.md §4.D "Result shape").
type FileHit struct {
	File           string
	FileTotalLines int
	Symbols        []SymbolHit
	Score          float64 // max of its symbols' scores
}

// Cursor paginates over the sorted FileHit list.
type Cursor struct {
	Hits       []FileHit
	PageSize   int
	PageIndex  int
	HasMore    bool
}

// Search is the query engine's single operation.
func Search(rm repomap.Repomap, args Args) Cursor {
	bySymbol := filterSymbols(rm.Symbols, args)
	byFile := groupByFile(bySymbol, args)
	byFile = filterBySymbolsPerFile(byFile, args)
	byFile = applyResponseBudget(sortFiles(byFile, args), args)

	pageSize := args.PageSize
	if pageSize <= 0 {
		pageSize = args.limit()
	}
	start := args.Cursor * pageSize
	end := start + pageSize
	if start > len(byFile) {
		start = len(byFile)
	}
	if end > len(byFile) {
		end = len(byFile)
	}

	return Cursor{
		Hits:      byFile[start:end],
		PageSize:  pageSize,
		PageIndex: args.Cursor,
		HasMore:   end < len(byFile),
	}
}

func filterSymbols(symbols []repomap.Symbol, args Args) []SymbolHit {
	var out []SymbolHit
	loader := args.loader()
	sourceCache := map[string][]byte{}
	getSource := func(path string) []byte {
		if s, ok := sourceCache[path]; ok {
			return s
		}
		s, err := loader(path)
		if err != nil {
			s = nil
		}
		sourceCache[path] = s
		return s
	}

	for _, sym := range symbols {
		if args.FilePattern != "" && !strings.Contains(sym.File, args.FilePattern) {
			continue
		}
		if args.MinFileLines != nil && sym.FileTotalLines < *args.MinFileLines {
			continue
		}
		if args.MaxFileLines != nil && sym.FileTotalLines > *args.MaxFileLines {
			continue
		}
		if args.MinFunctionLines != nil {
			if !sym.HasFunctionLines() || sym.FunctionLines < *args.MinFunctionLines {
				continue
			}
		}
		if args.MaxFunctionLines != nil {
			if !sym.HasFunctionLines() || sym.FunctionLines > *args.MaxFunctionLines {
				continue
			}
		}
		if len(args.SymbolKinds) > 0 && !kindAllowed(sym.Kind, args.SymbolKinds) {
			continue
		}

		score, matches := 0.0, []MatchSpan(nil)
		terms := args.Name
		biasKeyword := false
		if len(terms) == 0 && len(args.KeywordSearch) > 0 {
			terms = args.KeywordSearch
			biasKeyword = true
		}

		if len(terms) > 0 {
			score, matches = scoreSymbol(sym, terms, args.fields(), biasKeyword, getSource(sym.File))
			if score == 0 {
				continue
			}
		}
		// Name and KeywordSearch are distinct filters: when both are
		// supplied, Name drives the primary match/score above and
		// KeywordSearch additionally requires every keyword term to
		// match one of the symbol's extracted keywords.
		if len(args.Name) > 0 && len(args.KeywordSearch) > 0 && !keywordsMatch(sym.Keywords, args.KeywordSearch) {
			continue
		}
		if score < args.MatchScoreThreshold {
			continue
		}

		hit := SymbolHit{Symbol: sym, MatchScore: score, Matches: matches}
		if args.includeSnippets() {
			hit.Snippet = snippet(getSource(sym.File), sym, args.ContextLines, args.SnippetMaxChars)
		}
		out = append(out, hit)
	}
	return out
}

func kindAllowed(k repomap.Kind, allowed []repomap.Kind) bool {
	for _, a := range allowed {
		if a == k {
			return true
		}
	}
	return false
}

// keywordsMatch reports whether every term matches (as a case-insensitive
// substring) at least one of a symbol's extracted keywords.
func keywordsMatch(keywords []string, terms []string) bool {
	for _, term := range terms {
		termLower := strings.ToLower(term)
		found := false
		for _, kw := range keywords {
			if strings.Contains(kw, termLower) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// scoreSymbol tries each term against fields in priority order name,
// keyword, code, doc (or keyword-first when biased), scoring weighted
// increments — name 0.7, doc 0.4, code 0.3, keyword 0.2 — capped at 1.0
// (spec.md §4.D).
func scoreSymbol(sym repomap.Symbol, terms []string, fields []Field, biasKeyword bool, source []byte) (float64, []MatchSpan) {
	order := []Field{FieldName, FieldKeyword, FieldCode, FieldDoc}
	if biasKeyword {
		order = []Field{FieldKeyword, FieldName, FieldCode, FieldDoc}
	}

	weight := map[Field]float64{
		FieldName:    0.7,
		FieldDoc:     0.4,
		FieldCode:    0.3,
		FieldKeyword: 0.2,
	}

	allowed := map[Field]bool{}
	for _, f := range fields {
		allowed[f] = true
	}

	codeLines, docLines := symbolLines(sym, source)

	var score float64
	var matches []MatchSpan
	for _, term := range terms {
		termLower := strings.ToLower(term)
		matched := false
		for _, f := range order {
			if !allowed[f] {
				continue
			}
			switch f {
			case FieldName:
				if strings.Contains(strings.ToLower(sym.Name), termLower) {
					score += weight[f]
					matches = append(matches, MatchSpan{Field: f, Line: sym.StartLine})
					matched = true
				}
			case FieldKeyword:
				for _, kw := range sym.Keywords {
					if strings.Contains(kw, termLower) {
						score += weight[f]
						matches = append(matches, MatchSpan{Field: f, Line: sym.StartLine})
						matched = true
						break
					}
				}
			case FieldCode:
				if line, ok := containsInLines(codeLines, termLower); ok {
					score += weight[f]
					matches = append(matches, MatchSpan{Field: f, Line: line})
					matched = true
				}
			case FieldDoc:
				if line, ok := containsInLines(docLines, termLower); ok {
					score += weight[f]
					matches = append(matches, MatchSpan{Field: f, Line: line})
					matched = true
				}
			}
			if matched {
				break // "First hit determines field; subsequent terms are tried in order"
			}
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, matches
}

// symbolLines splits the lines of a symbol's own source span (StartLine
// through EndLine) into code lines and comment lines, distinguishing by
// leading comment markers (spec.md §4.D). Comment lines above StartLine
// are not included.
func symbolLines(sym repomap.Symbol, source []byte) (code []string, doc []string) {
	if source == nil {
		return nil, nil
	}
	lines := strings.Split(string(source), "\n")
	for i := sym.StartLine - 1; i < sym.EndLine && i < len(lines); i++ {
		if i < 0 {
			continue
		}
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if isCommentMarker(trimmed) {
			doc = append(doc, line)
		} else {
			code = append(code, line)
		}
	}
	return code, doc
}

func isCommentMarker(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*") ||
		strings.HasPrefix(line, "\"\"\"") || strings.HasPrefix(line, "'''")
}

func containsInLines(lines []string, term string) (int, bool) {
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), term) {
			return i + 1, true
		}
	}
	return 0, false
}

func snippet(source []byte, sym repomap.Symbol, contextLines, maxChars int) string {
	if source == nil {
		return ""
	}
	lines := strings.Split(string(source), "\n")
	start := sym.StartLine - 1 - contextLines
	if start < 0 {
		start = 0
	}
	end := sym.EndLine + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	if start >= len(lines) {
		return ""
	}
	s := strings.Join(lines[start:end], "\n")
	if maxChars > 0 && len(s) > maxChars {
		s = s[:maxChars]
	}
	return s
}

func groupByFile(hits []SymbolHit, args Args) []FileHit {
	order := []string{}
	byFile := map[string]*FileHit{}
	for _, h := range hits {
		f, ok := byFile[h.Symbol.File]
		if !ok {
			f = &FileHit{File: h.Symbol.File, FileTotalLines: h.Symbol.FileTotalLines}
			byFile[h.Symbol.File] = f
			order = append(order, h.Symbol.File)
		}
		f.Symbols = append(f.Symbols, h)
		if h.MatchScore > f.Score {
			f.Score = h.MatchScore
		}
	}
	out := make([]FileHit, 0, len(order))
	for _, path := range order {
		out = append(out, *byFile[path])
	}
	return out
}

func filterBySymbolsPerFile(files []FileHit, args Args) []FileHit {
	if args.MinSymbolsPerFile == nil && args.MaxSymbolsPerFile == nil {
		return files
	}
	var out []FileHit
	for _, f := range files {
		n := len(f.Symbols)
		if args.MinSymbolsPerFile != nil && n < *args.MinSymbolsPerFile {
			continue
		}
		if args.MaxSymbolsPerFile != nil && n > *args.MaxSymbolsPerFile {
			continue
		}
		out = append(out, f)
	}
	return out
}

func sortFiles(files []FileHit, args Args) []FileHit {
	desc := args.sortDesc()
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		less, equal := primaryLess(a, b, args.SortBy)
		// Ties broken by sort key, then file path ASC (spec.md §4.D) —
		// when the primary key is equal, always prefer ascending file
		// path order regardless of sort_desc.
		if equal {
			return a.File < b.File
		}
		if desc {
			return !less
		}
		return less
	})
	return files
}

// primaryLess compares a and b by the primary sort key only (no tiebreak),
// reporting both the ordering and whether the keys are equal.
func primaryLess(a, b FileHit, key SortKey) (less, equal bool) {
	switch key {
	case SortFunctionLines:
		av, bv := maxFunctionLines(a), maxFunctionLines(b)
		return av < bv, av == bv
	case SortSymbolCount:
		return len(a.Symbols) < len(b.Symbols), len(a.Symbols) == len(b.Symbols)
	case SortFilePath:
		return a.File < b.File, a.File == b.File
	case SortFileLines:
		fallthrough
	default:
		return a.FileTotalLines < b.FileTotalLines, a.FileTotalLines == b.FileTotalLines
	}
}

func maxFunctionLines(f FileHit) int {
	max := 0
	for _, s := range f.Symbols {
		if s.Symbol.FunctionLines > max {
			max = s.Symbol.FunctionLines
		}
	}
	return max
}

func applyResponseBudget(files []FileHit, args Args) []FileHit {
	if args.ResponseBudgetChars <= 0 {
		return files
	}
	total := 0
	for i, f := range files {
		total += len(f.File)
		for _, s := range f.Symbols {
			total += len(s.Symbol.Name) + len(s.Snippet)
		}
		if total > args.ResponseBudgetChars {
			return files[:i]
		}
	}
	return files
}
