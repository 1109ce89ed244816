package fstools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doge-run/doge/pkg/tools"
)

func buildListingTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.go"), []byte("x"), 0644))
	return dir
}

func TestFSList_DefaultDepthListsImmediateChildrenOnly(t *testing.T) {
	dir := buildListingTree(t)
	raw, _ := json.Marshal(map[string]string{"path": dir})
	result, err := FSList{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(fsListResult)
	var names []string
	for _, e := range res.Entries {
		names = append(names, filepath.Base(e.Path))
	}
	assert.ElementsMatch(t, []string{"a.go", "b.txt", "sub"}, names)
}

func TestFSList_DeeperMaxDepthIncludesNestedFiles(t *testing.T) {
	dir := buildListingTree(t)
	raw, _ := json.Marshal(map[string]any{"path": dir, "max_depth": 2})
	result, err := FSList{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(fsListResult)
	var names []string
	for _, e := range res.Entries {
		names = append(names, filepath.Base(e.Path))
	}
	assert.Contains(t, names, "c.go")
}

func TestFSList_PatternFiltersByBasename(t *testing.T) {
	dir := buildListingTree(t)
	raw, _ := json.Marshal(map[string]string{"path": dir, "pattern": "*.go"})
	result, err := FSList{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(fsListResult)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "a.go", filepath.Base(res.Entries[0].Path))
}

func TestFSList_PaginatesWithOffsetAndLimit(t *testing.T) {
	dir := buildListingTree(t)
	raw, _ := json.Marshal(map[string]any{"path": dir, "limit": 1})
	result, err := FSList{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(fsListResult)
	require.Len(t, res.Entries, 1)
	assert.True(t, res.Truncated)
	assert.Equal(t, 1, res.NextOffset)
}
