package fstools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type fsWriteArgs struct {
	Path    string `json:"path" jsonschema:"required,description=Absolute path of the file to write."`
	Content string `json:"content" jsonschema:"required,description=Full replacement content of the file."`
}

type fsWriteResult struct {
	OK      bool   `json:"ok"`
	Path    string `json:"path"`
	Created bool   `json:"created"`
	Diff    string `json:"diff,omitempty"`
}

// FSWrite implements `fs_write` (spec.md §4.F): full-content overwrite,
// diff-before-commit, and changed_files registration.
type FSWrite struct{}

func (FSWrite) Name() string        { return "fs_write" }
func (FSWrite) Description() string { return "Write a file in full, creating parent directories as needed." }
func (FSWrite) Schema() json.RawMessage { return tools.SchemaOf((*fsWriteArgs)(nil)) }

func (FSWrite) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args fsWriteArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid fs_write arguments", err)
	}
	if err := rejectBinary([]byte(args.Content)); err != nil {
		return nil, err
	}

	path, err := resolvePath(args.Path, tc)
	if err != nil {
		return nil, err
	}

	var prior string
	created := true
	if existing, readErr := os.ReadFile(path); readErr == nil {
		prior = string(existing)
		created = false
	} else if !os.IsNotExist(readErr) {
		return nil, doerr.Wrap(doerr.PermissionDenied, "cannot read prior content", readErr)
	}

	diffText := ""
	if prior != args.Content {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(prior),
			B:        difflib.SplitLines(args.Content),
			FromFile: args.Path,
			ToFile:   args.Path,
			Context:  3,
		}
		diffText, _ = difflib.GetUnifiedDiffString(diff)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, doerr.Wrap(doerr.PermissionDenied, "cannot create parent directories", err)
	}
	if err := os.WriteFile(path, []byte(args.Content), 0644); err != nil {
		return nil, doerr.Wrap(doerr.PermissionDenied, "cannot write file", err)
	}

	if tc.Session != nil {
		tc.Session.RecordChangedFile(relToProjectRoot(path, tc))
	}

	return fsWriteResult{OK: true, Path: args.Path, Created: created, Diff: diffText}, nil
}
