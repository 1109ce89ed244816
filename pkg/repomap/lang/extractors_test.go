package lang

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseWith parses source with sl and returns the tree's root node,
// mirroring how analyzer.extractChunk drives the parser per worker.
func parseWith(t *testing.T, sl *sitter.Language, source []byte) *sitter.Node {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(sl)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return tree.RootNode()
}
