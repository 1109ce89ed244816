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

func TestFSReadMany_ReadsEachFileIndependently(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("content-a"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("content-b"), 0644))

	raw, _ := json.Marshal(map[string][]string{"paths": {a, b}})
	result, err := FSReadMany{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(fsReadManyResult)
	require.Len(t, res.Files, 2)
	assert.True(t, res.Files[0].OK)
	assert.Equal(t, "content-a", res.Files[0].Content)
	assert.True(t, res.Files[1].OK)
	assert.Equal(t, "content-b", res.Files[1].Content)
}

func TestFSReadMany_OneMissingFileDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	missing := filepath.Join(dir, "missing.txt")
	require.NoError(t, os.WriteFile(a, []byte("content-a"), 0644))

	raw, _ := json.Marshal(map[string][]string{"paths": {a, missing}})
	result, err := FSReadMany{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(fsReadManyResult)
	require.Len(t, res.Files, 2)
	assert.True(t, res.Files[0].OK)
	assert.False(t, res.Files[1].OK)
	assert.NotEmpty(t, res.Files[1].Error)
}

func TestFSReadMany_EmptyPathsIsError(t *testing.T) {
	dir := t.TempDir()
	raw, _ := json.Marshal(map[string][]string{"paths": {}})
	_, err := FSReadMany{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.Error(t, err)
}
