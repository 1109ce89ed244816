package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTodoList_MissingFileReturnsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	list, err := LoadTodoList(path, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", list.SessionID)
	assert.Empty(t, list.Todos)
}

func TestTodoList_SaveThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos", "sess-1.json")
	list := TodoList{
		SessionID: "sess-1",
		Todos: []Todo{
			{ID: "1", Content: "write tests", Status: TodoInProgress},
			{ID: "2", Content: "ship it", Status: TodoPending},
		},
	}
	require.NoError(t, list.Save(path))

	loaded, err := LoadTodoList(path, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, list, loaded)
}
