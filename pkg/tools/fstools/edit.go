package fstools

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type editArgs struct {
	Path         string `json:"path" jsonschema:"required,description=Absolute path of the file to edit."`
	TargetBlock  string `json:"target_block" jsonschema:"required,description=Exact text block to locate; must occur exactly once."`
	Replacement  string `json:"replacement" jsonschema:"required,description=Text to substitute in place of target_block."`
	DryRun       bool   `json:"dry_run,omitempty" jsonschema:"description=If true, compute the diff without writing."`
}

type editResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	Diff        string `json:"diff,omitempty"`
	LinesEdited int    `json:"lines_edited,omitempty"`
}

// Edit implements `edit`: unique-block substitution (spec.md §4.F, §8
// "with zero or ≥2 occurrences, no file bytes change").
type Edit struct{}

func (Edit) Name() string        { return "edit" }
func (Edit) Description() string { return "Replace a uniquely-occurring text block within a file." }
func (Edit) Schema() json.RawMessage { return tools.SchemaOf((*editArgs)(nil)) }

func (Edit) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args editArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid edit arguments", err)
	}

	path, err := resolvePath(args.Path, tc)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, doerr.Wrap(doerr.NotFound, "file not found: "+args.Path, err)
		}
		return nil, doerr.Wrap(doerr.PermissionDenied, "cannot read file", err)
	}

	original := string(content)
	occurrences := strings.Count(original, args.TargetBlock)
	if occurrences != 1 {
		msg := "target_block occurs zero times"
		if occurrences > 1 {
			msg = "target_block is not unique: occurs multiple times"
		}
		return editResult{Success: false, Message: msg}, nil
	}

	modified := strings.Replace(original, args.TargetBlock, args.Replacement, 1)
	if err := rejectBinary([]byte(modified)); err != nil {
		return nil, err
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: args.Path,
		ToFile:   args.Path,
		Context:  3,
	}
	diffText, _ := difflib.GetUnifiedDiffString(diff)
	lines := countChangedLines(diffText)

	if !args.DryRun {
		if err := os.WriteFile(path, []byte(modified), 0644); err != nil {
			return nil, doerr.Wrap(doerr.PermissionDenied, "cannot write file", err)
		}
		if tc.Session != nil {
			tc.Session.RecordChangedFile(relToProjectRoot(path, tc))
			tc.Session.RecordLinesEdited(lines)
		}
	}

	return editResult{Success: true, Diff: diffText, LinesEdited: lines}, nil
}

// countChangedLines counts unified-diff body lines (+/-), excluding the
// `---`/`+++` file headers and `@@` hunk headers.
func countChangedLines(diff string) int {
	count := 0
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") || strings.HasPrefix(line, "@@") {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			count++
		}
	}
	return count
}
