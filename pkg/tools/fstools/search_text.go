package fstools

import (
	"bufio"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type searchTextArgs struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Regular expression to search for."`
	Path    string `json:"path" jsonschema:"required,description=Absolute directory to search within."`
	Glob    string `json:"glob,omitempty" jsonschema:"description=Optional glob bounding which file basenames are searched."`
	MaxResults int `json:"max_results,omitempty" jsonschema:"description=Maximum number of matches to return. Defaults to 500."`
}

type searchTextMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

type searchTextResult struct {
	OK        bool              `json:"ok"`
	Matches   []searchTextMatch `json:"matches"`
	Truncated bool              `json:"truncated"`
}

const defaultSearchMaxResults = 500

// SearchText implements `search_text`: an in-process regex search bounded
// by a glob and skipping known binary extensions (spec.md §4.F). The spec
// permits shelling out to an external grep; this implementation stays
// in-process to avoid a PATH dependency on an external binary.
type SearchText struct{}

func (SearchText) Name() string        { return "search_text" }
func (SearchText) Description() string { return "Search a regular expression across a glob-bounded set of files." }
func (SearchText) Schema() json.RawMessage { return tools.SchemaOf((*searchTextArgs)(nil)) }

func (SearchText) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args searchTextArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid search_text arguments", err)
	}
	re, err := regexp.Compile(args.Pattern)
	if err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid regular expression", err)
	}

	root, err := resolvePath(args.Path, tc)
	if err != nil {
		return nil, err
	}
	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = defaultSearchMaxResults
	}

	var matches []searchTextMatch
	truncated := false
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if truncated {
			return nil
		}
		if isBinaryExtension(path) {
			return nil
		}
		if args.Glob != "" {
			if matched, _ := filepath.Match(args.Glob, entry.Name()); !matched {
				return nil
			}
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if re.MatchString(line) {
				matches = append(matches, searchTextMatch{Path: path, Line: lineNo, Text: strings.TrimSpace(line)})
				if len(matches) >= maxResults {
					truncated = true
					break
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "search walk failed", walkErr)
	}

	return searchTextResult{OK: true, Matches: matches, Truncated: truncated}, nil
}
