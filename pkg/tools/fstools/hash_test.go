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

func TestGetFileSHA256_MatchesKnownDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	content := []byte("hello world")
	require.NoError(t, os.WriteFile(path, content, 0644))

	expected := sha256.Sum256(content)

	raw, _ := json.Marshal(map[string]string{"path": path})
	result, err := GetFileSHA256{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.NoError(t, err)

	res := result.(getFileSHA256Result)
	assert.Equal(t, hex.EncodeToString(expected[:]), res.SHA256)
}

func TestGetFileSHA256_MissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	raw, _ := json.Marshal(map[string]string{"path": filepath.Join(dir, "missing.txt")})
	_, err := GetFileSHA256{}.Execute(context.Background(), tools.Context{ProjectRoot: dir}, raw)
	require.Error(t, err)
}
