package fstools

import (
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type fsListArgs struct {
	Path     string `json:"path" jsonschema:"required,description=Absolute directory path to list."`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"description=Maximum recursion depth. Defaults to 1 (immediate children only)."`
	Pattern  string `json:"pattern,omitempty" jsonschema:"description=Optional glob pattern filtering entry basenames."`
	Offset   int    `json:"offset,omitempty" jsonschema:"description=0-based pagination offset into the sorted entry list."`
	Limit    int    `json:"limit,omitempty" jsonschema:"description=Maximum number of entries to return. Defaults to 200."`
}

type fsListEntry struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

type fsListResult struct {
	OK         bool          `json:"ok"`
	Entries    []fsListEntry `json:"entries"`
	NextOffset int           `json:"next_offset,omitempty"`
	Truncated  bool          `json:"truncated"`
}

const defaultListLimit = 200

// FSList implements `fs_list`: a depth-bounded, pattern-filterable,
// paginated directory walk (spec.md §4.F).
type FSList struct{}

func (FSList) Name() string        { return "fs_list" }
func (FSList) Description() string { return "List directory entries up to a maximum depth, optionally pattern-filtered." }
func (FSList) Schema() json.RawMessage { return tools.SchemaOf((*fsListArgs)(nil)) }

func (FSList) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args fsListArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid fs_list arguments", err)
	}

	root, err := resolvePath(args.Path, tc)
	if err != nil {
		return nil, err
	}
	maxDepth := args.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var all []fsListEntry
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		depth := len(strings.Split(rel, string(filepath.Separator)))
		if depth > maxDepth {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if args.Pattern != "" {
			if matched, _ := filepath.Match(args.Pattern, entry.Name()); !matched {
				return nil
			}
		}
		all = append(all, fsListEntry{Path: path, IsDir: entry.IsDir()})
		return nil
	})
	if walkErr != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "directory walk failed", walkErr)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })

	start := args.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	result := fsListResult{OK: true, Entries: all[start:end]}
	if end < len(all) {
		result.Truncated = true
		result.NextOffset = end
	}
	return result, nil
}
