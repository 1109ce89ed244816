package fstools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doge-run/doge/pkg/tools"
)

func TestCreatePatch_ApplyPatch_RoundTrip(t *testing.T) {
	original := "line one\nline two\nline three\n"
	modified := "line one\nline TWO\nline three\nline four\n"

	raw, _ := json.Marshal(map[string]string{"original": original, "modified": modified})
	created, err := CreatePatch{}.Execute(context.Background(), tools.Context{}, raw)
	require.NoError(t, err)
	patch := created.(createPatchResult).Patch
	require.NotEmpty(t, patch)

	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte(original), 0644))

	applyRaw, _ := json.Marshal(map[string]string{"path": path, "patch": patch})
	applied, err := ApplyPatch{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, applyRaw)
	require.NoError(t, err)

	res := applied.(applyPatchResult)
	require.True(t, res.Success)

	result, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, modified, string(result))
}

func TestApplyPatch_HashPreconditionMismatchFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("content\n"), 0644))

	wrongHash := sha256.Sum256([]byte("not the content"))
	raw, _ := json.Marshal(map[string]string{
		"path":            path,
		"patch":           "",
		"expected_sha256": hex.EncodeToString(wrongHash[:]),
	})

	_, err := ApplyPatch{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.Error(t, err)
}

func TestApplyPatch_ContextMismatchFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0644))

	badPatch := "--- a\n+++ b\n@@ -1,3 +1,3 @@\n a\n-X\n+y\n c\n"
	raw, _ := json.Marshal(map[string]string{"path": path, "patch": badPatch})

	result, err := ApplyPatch{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)
	assert.False(t, result.(applyPatchResult).Success)
}
