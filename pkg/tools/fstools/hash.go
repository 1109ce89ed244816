package fstools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type getFileSHA256Args struct {
	Path string `json:"path" jsonschema:"required,description=Absolute path of the file to hash."`
}

type getFileSHA256Result struct {
	OK     bool   `json:"ok"`
	SHA256 string `json:"sha256"`
}

// GetFileSHA256 implements `get_file_sha256`: hashes a file's bytes
// exactly (spec.md §4.F).
type GetFileSHA256 struct{}

func (GetFileSHA256) Name() string        { return "get_file_sha256" }
func (GetFileSHA256) Description() string { return "Compute the SHA-256 hash of a file's bytes." }
func (GetFileSHA256) Schema() json.RawMessage { return tools.SchemaOf((*getFileSHA256Args)(nil)) }

func (GetFileSHA256) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args getFileSHA256Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid get_file_sha256 arguments", err)
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
	sum := sha256.Sum256(content)
	return getFileSHA256Result{OK: true, SHA256: hex.EncodeToString(sum[:])}, nil
}
