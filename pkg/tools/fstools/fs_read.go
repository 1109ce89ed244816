package fstools

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

const defaultPageByteBudget = 64 * 1024

type fsReadArgs struct {
	Path           string `json:"path" jsonschema:"required,description=Absolute path of the file to read."`
	Offset         int    `json:"offset,omitempty" jsonschema:"description=1-based line number to start reading from. Defaults to 1."`
	Limit          int    `json:"limit,omitempty" jsonschema:"description=Maximum number of lines to return. Defaults to the whole remainder of the file."`
	PageByteBudget int    `json:"page_byte_budget,omitempty" jsonschema:"description=Maximum bytes to return in one page. Defaults to 65536."`
}

type fsReadResult struct {
	OK          bool   `json:"ok"`
	Content     string `json:"content"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	TotalLines  int    `json:"total_lines"`
	NextOffset  int    `json:"next_offset,omitempty"`
	Truncated   bool   `json:"truncated"`
}

// FSRead implements the `fs_read` tool (spec.md §4.F).
type FSRead struct{}

func (FSRead) Name() string        { return "fs_read" }
func (FSRead) Description() string { return "Read a text file, with optional line offset/limit and page-size budget." }
func (FSRead) Schema() json.RawMessage { return tools.SchemaOf((*fsReadArgs)(nil)) }

func (FSRead) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args fsReadArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid fs_read arguments", err)
	}

	path, err := resolvePath(args.Path, tc)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, doerr.Wrap(doerr.NotFound, "file not found: "+args.Path, err)
		}
		return nil, doerr.Wrap(doerr.PermissionDenied, "cannot stat file", err)
	}
	if info.IsDir() {
		return nil, doerr.New(doerr.ToolExecution, "fs_read refuses directories: "+args.Path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, doerr.Wrap(doerr.PermissionDenied, "cannot read file", err)
	}

	lines := strings.Split(string(content), "\n")
	total := len(lines)

	offset := args.Offset
	if offset < 1 {
		offset = 1
	}
	limit := args.Limit
	if limit <= 0 {
		limit = total
	}
	budget := args.PageByteBudget
	if budget <= 0 {
		budget = defaultPageByteBudget
	}

	start := offset - 1
	if start >= total {
		return fsReadResult{OK: true, Content: "", StartLine: offset, EndLine: offset - 1, TotalLines: total}, nil
	}
	end := start + limit
	if end > total {
		end = total
	}

	var b strings.Builder
	truncated := false
	lastLine := start
	for i := start; i < end; i++ {
		line := lines[i]
		if b.Len()+len(line)+1 > budget {
			truncated = true
			break
		}
		if i > start {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		lastLine = i
	}

	result := fsReadResult{
		OK:         true,
		Content:    b.String(),
		StartLine:  offset,
		EndLine:    lastLine + 1,
		TotalLines: total,
		Truncated:  truncated || end < total,
	}
	if result.Truncated {
		result.NextOffset = lastLine + 2
	}
	return result, nil
}
