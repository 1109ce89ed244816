package fstools

import (
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type findFileArgs struct {
	Path    string `json:"path" jsonschema:"required,description=Absolute directory to search within."`
	Pattern string `json:"pattern" jsonschema:"required,description=Basename or glob pattern to resolve (e.g. main.go or *.go)."`
}

type findFileResult struct {
	OK    bool     `json:"ok"`
	Paths []string `json:"paths"`
}

// FindFile implements `find_file`: resolves a basename or glob to the set
// of matching absolute paths under path (spec.md §4.F).
type FindFile struct{}

func (FindFile) Name() string        { return "find_file" }
func (FindFile) Description() string { return "Resolve a basename or glob pattern to matching file paths." }
func (FindFile) Schema() json.RawMessage { return tools.SchemaOf((*findFileArgs)(nil)) }

func (FindFile) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args findFileArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid find_file arguments", err)
	}

	root, err := resolvePath(args.Path, tc)
	if err != nil {
		return nil, err
	}

	var matches []string
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(args.Pattern, entry.Name()); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "find_file walk failed", walkErr)
	}
	sort.Strings(matches)
	return findFileResult{OK: true, Paths: matches}, nil
}
