// Package todotool implements todo_read/todo_write (spec.md §3 "Todo
// list", §4.E), persisted at `.doge/todos/<session-id>.json`.
package todotool

import (
	"context"
	"encoding/json"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/session"
	"github.com/doge-run/doge/pkg/tools"
)

// PathFor resolves a session id to its persisted todo-list path. Wired
// by the cmd entrypoint to config.Config.TodoPath.
type PathFor func(sessionID string) string

type todoReadArgs struct{}

// TodoRead implements `todo_read`.
type TodoRead struct {
	PathFor PathFor
}

func (TodoRead) Name() string        { return "todo_read" }
func (TodoRead) Description() string { return "Read the current session's todo list." }
func (TodoRead) Schema() json.RawMessage { return tools.SchemaOf((*todoReadArgs)(nil)) }

func (t TodoRead) Execute(_ context.Context, tc tools.Context, _ json.RawMessage) (any, error) {
	if tc.Session == nil {
		return nil, doerr.New(doerr.ToolExecution, "no active session")
	}
	list, err := session.LoadTodoList(t.PathFor(tc.Session.ID()), tc.Session.ID())
	if err != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "cannot read todo list", err)
	}
	return list, nil
}

type todoWriteArgs struct {
	Todos []session.Todo `json:"todos" jsonschema:"required,description=Full ordered replacement todo list."`
}

// TodoWrite implements `todo_write`.
type TodoWrite struct {
	PathFor PathFor
}

func (TodoWrite) Name() string        { return "todo_write" }
func (TodoWrite) Description() string { return "Replace the current session's todo list." }
func (TodoWrite) Schema() json.RawMessage { return tools.SchemaOf((*todoWriteArgs)(nil)) }

func (t TodoWrite) Execute(_ context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	if tc.Session == nil {
		return nil, doerr.New(doerr.ToolExecution, "no active session")
	}
	var args todoWriteArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid todo_write arguments", err)
	}
	list := session.TodoList{SessionID: tc.Session.ID(), Todos: args.Todos}
	if err := list.Save(t.PathFor(tc.Session.ID())); err != nil {
		return nil, doerr.Wrap(doerr.ToolExecution, "cannot persist todo list", err)
	}
	return list, nil
}
