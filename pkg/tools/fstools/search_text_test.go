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

func TestSearchText_FindsMatchesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("func Foo() {}\nfunc Bar() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("func Foo2() {}\n"), 0644))

	raw, _ := json.Marshal(map[string]string{"path": dir, "pattern": "func Foo"})
	result, err := SearchText{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(searchTextResult)
	assert.Len(t, res.Matches, 2)
	assert.False(t, res.Truncated)
}

func TestSearchText_GlobRestrictsSearchedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("needle\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("needle\n"), 0644))

	raw, _ := json.Marshal(map[string]string{"path": dir, "pattern": "needle", "glob": "*.go"})
	result, err := SearchText{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(searchTextResult)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "a.go", filepath.Base(res.Matches[0].Path))
}

func TestSearchText_SkipsBinaryExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("needle\n"), 0644))

	raw, _ := json.Marshal(map[string]string{"path": dir, "pattern": "needle"})
	result, err := SearchText{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(searchTextResult)
	assert.Empty(t, res.Matches)
}

func TestSearchText_TruncatesAtMaxResults(t *testing.T) {
	dir := t.TempDir()
	var content string
	for i := 0; i < 10; i++ {
		content += "needle\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte(content), 0644))

	raw, _ := json.Marshal(map[string]any{"path": dir, "pattern": "needle", "max_results": 3})
	result, err := SearchText{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(searchTextResult)
	assert.Len(t, res.Matches, 3)
	assert.True(t, res.Truncated)
}

func TestSearchText_InvalidRegexIsError(t *testing.T) {
	dir := t.TempDir()
	raw, _ := json.Marshal(map[string]string{"path": dir, "pattern": "(unclosed"})
	_, err := SearchText{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.Error(t, err)
}
