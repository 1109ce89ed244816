package fstools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type createPatchArgs struct {
	Original string `json:"original" jsonschema:"required,description=Original file content."`
	Modified string `json:"modified" jsonschema:"required,description=Modified file content."`
	FromFile string `json:"from_file,omitempty" jsonschema:"description=Label for the original side of the diff."`
	ToFile   string `json:"to_file,omitempty" jsonschema:"description=Label for the modified side of the diff."`
}

type createPatchResult struct {
	OK    bool   `json:"ok"`
	Patch string `json:"patch"`
}

// CreatePatch implements `create_patch`: a pure unified-diff generator
// (spec.md §4.F).
type CreatePatch struct{}

func (CreatePatch) Name() string        { return "create_patch" }
func (CreatePatch) Description() string { return "Produce a unified diff between two strings." }
func (CreatePatch) Schema() json.RawMessage { return tools.SchemaOf((*createPatchArgs)(nil)) }

func (CreatePatch) Execute(_ context.Context, _ tools.Context, raw json.RawMessage) (any, error) {
	var args createPatchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid create_patch arguments", err)
	}
	fromFile, toFile := args.FromFile, args.ToFile
	if fromFile == "" {
		fromFile = "a"
	}
	if toFile == "" {
		toFile = "b"
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(args.Original),
		B:        difflib.SplitLines(args.Modified),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	}
	patch, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "failed to generate diff", err)
	}
	return createPatchResult{OK: true, Patch: patch}, nil
}

type applyPatchArgs struct {
	Path         string `json:"path" jsonschema:"required,description=Absolute path of the file to patch."`
	Patch        string `json:"patch" jsonschema:"required,description=Unified diff to apply."`
	ExpectedSHA256 string `json:"expected_sha256,omitempty" jsonschema:"description=Optional hash precondition on the current file content."`
	DryRun       bool   `json:"dry_run,omitempty" jsonschema:"description=If true, return the projected content without writing."`
}

type applyPatchResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
}

// ApplyPatch implements `apply_patch` (spec.md §4.F): atomic, hash-gated,
// line-ending-preserving unified diff application. No example repo's
// dependency graph ships a unified-diff applier (go-difflib only
// generates diffs); the hunk parser/applier below is hand-rolled and
// documented as a stdlib exception in DESIGN.md.
type ApplyPatch struct{}

func (ApplyPatch) Name() string        { return "apply_patch" }
func (ApplyPatch) Description() string { return "Apply a unified diff to a file atomically, with an optional hash precondition." }
func (ApplyPatch) Schema() json.RawMessage { return tools.SchemaOf((*applyPatchArgs)(nil)) }

func (ApplyPatch) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args applyPatchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid apply_patch arguments", err)
	}

	path, err := resolvePath(args.Path, tc)
	if err != nil {
		return nil, err
	}
	original, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, doerr.Wrap(doerr.NotFound, "file not found: "+args.Path, err)
		}
		return nil, doerr.Wrap(doerr.PermissionDenied, "cannot read file", err)
	}

	if args.ExpectedSHA256 != "" {
		sum := sha256.Sum256(original)
		actual := hex.EncodeToString(sum[:])
		if actual != args.ExpectedSHA256 {
			return nil, doerr.New(doerr.HashMismatch, fmt.Sprintf("file hash %s does not match expected %s", actual, args.ExpectedSHA256))
		}
	}

	crlf := strings.Contains(string(original), "\r\n")
	normalizedOriginal := strings.ReplaceAll(string(original), "\r\n", "\n")
	normalizedPatch := strings.ReplaceAll(args.Patch, "\r\n", "\n")

	hunks, err := parseUnifiedDiff(normalizedPatch)
	if err != nil {
		return applyPatchResult{Success: false, Message: err.Error()}, nil
	}
	if len(hunks) == 0 && strings.TrimSpace(normalizedOriginal) != "" {
		return applyPatchResult{Success: false, Message: "patch yields no hunks"}, nil
	}

	patched, err := applyHunks(normalizedOriginal, hunks)
	if err != nil {
		return applyPatchResult{Success: false, Message: err.Error()}, nil
	}

	if crlf {
		patched = strings.ReplaceAll(patched, "\n", "\r\n")
	}
	if err := rejectBinary([]byte(patched)); err != nil {
		return nil, err
	}

	if args.DryRun {
		return applyPatchResult{Success: true, Content: patched}, nil
	}

	if err := os.WriteFile(path, []byte(patched), 0644); err != nil {
		return nil, doerr.Wrap(doerr.PermissionDenied, "cannot write file", err)
	}
	if tc.Session != nil {
		tc.Session.RecordChangedFile(relToProjectRoot(path, tc))
	}
	return applyPatchResult{Success: true}, nil
}

type diffLineKind int

const (
	lineContext diffLineKind = iota
	lineAdd
	lineRemove
)

type diffLine struct {
	kind diffLineKind
	text string
}

type hunk struct {
	origStart int
	lines     []diffLine
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

func parseUnifiedDiff(patch string) ([]hunk, error) {
	var hunks []hunk
	var current *hunk
	// The patch's final newline ends its last line; it is not an empty
	// context line of its own.
	for _, line := range strings.Split(strings.TrimSuffix(patch, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ "):
			continue
		case strings.HasPrefix(line, "@@"):
			m := hunkHeaderRe.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("malformed hunk header: %s", line)
			}
			start, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("malformed hunk header: %s", line)
			}
			if current != nil {
				hunks = append(hunks, *current)
			}
			current = &hunk{origStart: start}
		case current != nil && strings.HasPrefix(line, "+"):
			current.lines = append(current.lines, diffLine{kind: lineAdd, text: line[1:]})
		case current != nil && strings.HasPrefix(line, "-"):
			current.lines = append(current.lines, diffLine{kind: lineRemove, text: line[1:]})
		case current != nil && strings.HasPrefix(line, " "):
			current.lines = append(current.lines, diffLine{kind: lineContext, text: line[1:]})
		case current != nil && line == "":
			current.lines = append(current.lines, diffLine{kind: lineContext, text: ""})
		}
	}
	if current != nil {
		hunks = append(hunks, *current)
	}
	return hunks, nil
}

func applyHunks(original string, hunks []hunk) (string, error) {
	origLines := strings.Split(original, "\n")
	var result []string
	idx := 0 // 0-based cursor into origLines

	for _, h := range hunks {
		start := h.origStart - 1
		if start < 0 || start > len(origLines) {
			return "", fmt.Errorf("hunk start line %d out of range", h.origStart)
		}
		if start < idx {
			return "", fmt.Errorf("overlapping or out-of-order hunks")
		}
		result = append(result, origLines[idx:start]...)
		idx = start

		for _, dl := range h.lines {
			switch dl.kind {
			case lineContext:
				if idx >= len(origLines) || origLines[idx] != dl.text {
					return "", fmt.Errorf("context line mismatch at line %d", idx+1)
				}
				result = append(result, origLines[idx])
				idx++
			case lineRemove:
				if idx >= len(origLines) || origLines[idx] != dl.text {
					return "", fmt.Errorf("removed line mismatch at line %d", idx+1)
				}
				idx++
			case lineAdd:
				result = append(result, dl.text)
			}
		}
	}
	result = append(result, origLines[idx:]...)
	return strings.Join(result, "\n"), nil
}
