package fstools

import (
	"context"
	"encoding/json"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type fsReadManyArgs struct {
	Paths []string `json:"paths" jsonschema:"required,description=Absolute paths of the files to read."`
}

type fsReadManyEntry struct {
	Path    string `json:"path"`
	OK      bool   `json:"ok"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

type fsReadManyResult struct {
	OK    bool              `json:"ok"`
	Files []fsReadManyEntry `json:"files"`
}

// FSReadMany implements `fs_read_many_files`: a batch of independent
// fs_read calls whose per-file failures do not abort the whole batch.
type FSReadMany struct{}

func (FSReadMany) Name() string        { return "fs_read_many_files" }
func (FSReadMany) Description() string { return "Read several text files in one call; per-file failures are reported inline." }
func (FSReadMany) Schema() json.RawMessage { return tools.SchemaOf((*fsReadManyArgs)(nil)) }

func (FSReadMany) Execute(ctx context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args fsReadManyArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid fs_read_many_files arguments", err)
	}
	if len(args.Paths) == 0 {
		return nil, doerr.New(doerr.ToolArgInvalid, "paths must not be empty")
	}

	reader := FSRead{}
	entries := make([]fsReadManyEntry, 0, len(args.Paths))
	for _, p := range args.Paths {
		single, _ := json.Marshal(fsReadArgs{Path: p})
		result, err := reader.Execute(ctx, tc, single)
		if err != nil {
			entries = append(entries, fsReadManyEntry{Path: p, OK: false, Error: err.Error()})
			continue
		}
		rr := result.(fsReadResult)
		entries = append(entries, fsReadManyEntry{Path: p, OK: true, Content: rr.Content})
	}
	return fsReadManyResult{OK: true, Files: entries}, nil
}
