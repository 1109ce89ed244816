package fstools

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

func TestResolvePath_RejectsRelative(t *testing.T) {
	tc := tools.Context{ProjectRoot: "/project"}
	_, err := resolvePath("relative/path.go", tc)
	require.Error(t, err)
	assert.True(t, doerr.Is(err, doerr.PathEscape))
}

func TestResolvePath_RejectsEscapingPath(t *testing.T) {
	tc := tools.Context{ProjectRoot: "/project"}
	_, err := resolvePath("/etc/passwd", tc)
	require.Error(t, err)
	assert.True(t, doerr.Is(err, doerr.PathEscape))
}

func TestResolvePath_AcceptsPathWithinProjectRoot(t *testing.T) {
	tc := tools.Context{ProjectRoot: "/project"}
	resolved, err := resolvePath("/project/pkg/main.go", tc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/project/pkg/main.go"), resolved)
}

func TestResolvePath_AcceptsAdditionalAllowedPath(t *testing.T) {
	tc := tools.Context{ProjectRoot: "/project", AllowedPaths: []string{"/shared"}}
	resolved, err := resolvePath("/shared/lib.go", tc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/shared/lib.go"), resolved)
}

func TestRejectBinary_NullByteRejected(t *testing.T) {
	err := rejectBinary([]byte("hello\x00world"))
	require.Error(t, err)
	assert.True(t, doerr.Is(err, doerr.BinaryContent))
}

func TestRejectBinary_PlainTextAccepted(t *testing.T) {
	assert.NoError(t, rejectBinary([]byte("hello world")))
}

func TestIsBinaryExtension(t *testing.T) {
	assert.True(t, isBinaryExtension("image.PNG"))
	assert.False(t, isBinaryExtension("main.go"))
}
