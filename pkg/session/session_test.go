package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SaveThenOpen_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := New("sess-1", dir)
	s.AddMessage(Message{Role: "user", Content: "hello"})
	s.RecordChangedFile("pkg/main.go")
	s.RecordRequest(42)
	s.RecordToolCall()
	s.RecordLinesEdited(3)
	s.RecordToolOutcome(true)
	s.SetTitle("hello")

	require.NoError(t, s.Save())

	reopened, err := Open("sess-1", dir)
	require.NoError(t, err)

	assert.Equal(t, "sess-1", reopened.ID())
	assert.Equal(t, []Message{{Role: "user", Content: "hello"}}, reopened.History())
	assert.Equal(t, "hello", reopened.Meta().Title)
	assert.Equal(t, 42, reopened.Meta().TotalTokens)
	assert.Equal(t, 1, reopened.Meta().ToolCallCount)
	assert.Equal(t, 3, reopened.Meta().LinesEdited)
	assert.Equal(t, 1, reopened.Meta().ToolSuccessCount)
	assert.Contains(t, reopened.ChangedFiles(), "pkg/main.go")
}

func TestSession_Open_MissingDirReturnsFresh(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	s, err := Open("new-session", dir)
	require.NoError(t, err)
	assert.Empty(t, s.History())
	assert.Empty(t, s.Meta().Title)
}

func TestSession_SetTitle_OnlySetsOnce(t *testing.T) {
	s := New("s", t.TempDir())
	s.SetTitle("first")
	s.SetTitle("second")
	assert.Equal(t, "first", s.Meta().Title)
}

func TestSession_ClearChangedFiles_ReturnsAndEmpties(t *testing.T) {
	s := New("s", t.TempDir())
	s.RecordChangedFile("a.go")
	s.RecordChangedFile("b.go")

	cleared := s.ClearChangedFiles()
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, cleared)
	assert.Empty(t, s.ChangedFiles())
}
