// Package repotool adapts the Repomap Query Engine (pkg/repomap/query)
// into the `search_repomap` tool (spec.md §4.D, §4.E).
package repotool

import (
	"context"
	"encoding/json"
	"os"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/repomap"
	"github.com/doge-run/doge/pkg/repomap/query"
	"github.com/doge-run/doge/pkg/tools"
)

type searchRepomapArgs struct {
	FilePattern         string   `json:"file_pattern,omitempty" jsonschema:"description=Substring filter on symbol file paths."`
	MinFileLines        *int     `json:"min_file_lines,omitempty"`
	MaxFileLines        *int     `json:"max_file_lines,omitempty"`
	MinFunctionLines    *int     `json:"min_function_lines,omitempty"`
	MaxFunctionLines    *int     `json:"max_function_lines,omitempty"`
	SymbolKinds         []string `json:"symbol_kinds,omitempty" jsonschema:"description=Restrict to these Symbol kinds."`
	MinSymbolsPerFile   *int     `json:"min_symbols_per_file,omitempty"`
	MaxSymbolsPerFile   *int     `json:"max_symbols_per_file,omitempty"`
	Name                []string `json:"name,omitempty" jsonschema:"description=Name terms to match (OR across terms)."`
	KeywordSearch       []string `json:"keyword_search,omitempty" jsonschema:"description=Doc-comment keyword terms to match."`
	Fields              []string `json:"fields,omitempty" jsonschema:"description=Restrict matching to these fields: name, keyword, code, doc."`
	SortBy              string   `json:"sort_by,omitempty" jsonschema:"description=One of file_lines, function_lines, symbol_count, file_path."`
	SortDesc            *bool    `json:"sort_desc,omitempty"`
	Limit               int      `json:"limit,omitempty"`
	Cursor              int      `json:"cursor,omitempty"`
	PageSize            int      `json:"page_size,omitempty"`
	ResponseBudgetChars int      `json:"response_budget_chars,omitempty"`
	IncludeSnippets     *bool    `json:"include_snippets,omitempty"`
	ContextLines        int      `json:"context_lines,omitempty"`
	SnippetMaxChars     int      `json:"snippet_max_chars,omitempty"`
	MatchScoreThreshold float64  `json:"match_score_threshold,omitempty"`
}

type searchRepomapFileResult struct {
	File           string            `json:"file"`
	FileTotalLines int               `json:"file_total_lines"`
	Score          float64           `json:"score"`
	Symbols        []json.RawMessage `json:"symbols"`
}

type searchRepomapResult struct {
	OK      bool                      `json:"ok"`
	Files   []searchRepomapFileResult `json:"files"`
	HasMore bool                      `json:"has_more"`
}

type symbolResultView struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Parent     string   `json:"parent,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Snippet    string   `json:"snippet,omitempty"`
	MatchScore float64  `json:"match_score,omitempty"`
}

// SearchRepomap implements `search_repomap`.
type SearchRepomap struct {
	// Repomap returns the current, live Repomap snapshot. Wired by the
	// cmd entrypoint to the Analyzer Driver's cached result.
	Repomap func() repomap.Repomap
}

func (SearchRepomap) Name() string        { return "search_repomap" }
func (SearchRepomap) Description() string { return "Search structural symbols extracted from the project (functions, types, methods, etc.)." }
func (SearchRepomap) Schema() json.RawMessage { return tools.SchemaOf((*searchRepomapArgs)(nil)) }

func (s SearchRepomap) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args searchRepomapArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid search_repomap arguments", err)
	}

	rmFn := s.Repomap
	if rmFn == nil {
		rmFn = tc.Repomap
	}
	if rmFn == nil {
		return nil, doerr.New(doerr.ToolExecution, "repomap is not available")
	}

	qargs := query.Args{
		FilePattern:         args.FilePattern,
		MinFileLines:        args.MinFileLines,
		MaxFileLines:        args.MaxFileLines,
		MinFunctionLines:    args.MinFunctionLines,
		MaxFunctionLines:    args.MaxFunctionLines,
		MinSymbolsPerFile:   args.MinSymbolsPerFile,
		MaxSymbolsPerFile:   args.MaxSymbolsPerFile,
		Name:                args.Name,
		KeywordSearch:       args.KeywordSearch,
		SortBy:              query.SortKey(args.SortBy),
		SortDesc:            args.SortDesc,
		Limit:               args.Limit,
		Cursor:              args.Cursor,
		PageSize:            args.PageSize,
		ResponseBudgetChars: args.ResponseBudgetChars,
		IncludeSnippets:     args.IncludeSnippets,
		ContextLines:        args.ContextLines,
		SnippetMaxChars:     args.SnippetMaxChars,
		MatchScoreThreshold: args.MatchScoreThreshold,
		SourceLoader:        os.ReadFile,
	}
	for _, k := range args.SymbolKinds {
		qargs.SymbolKinds = append(qargs.SymbolKinds, repomap.Kind(k))
	}
	for _, f := range args.Fields {
		qargs.Fields = append(qargs.Fields, query.Field(f))
	}

	cursor := query.Search(rmFn(), qargs)

	result := searchRepomapResult{OK: true, HasMore: cursor.HasMore}
	for _, fileHit := range cursor.Hits {
		fr := searchRepomapFileResult{File: fileHit.File, FileTotalLines: fileHit.FileTotalLines, Score: fileHit.Score}
		for _, sh := range fileHit.Symbols {
			view := symbolResultView{
				Name:       sh.Symbol.Name,
				Kind:       string(sh.Symbol.Kind),
				StartLine:  sh.Symbol.StartLine,
				EndLine:    sh.Symbol.EndLine,
				Parent:     sh.Symbol.Parent,
				Keywords:   sh.Symbol.Keywords,
				Snippet:    sh.Snippet,
				MatchScore: sh.MatchScore,
			}
			b, _ := json.Marshal(view)
			fr.Symbols = append(fr.Symbols, b)
		}
		result.Files = append(result.Files, fr)
	}
	return result, nil
}
