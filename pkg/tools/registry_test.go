package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doge-run/doge/pkg/doerr"
)

type echoTool struct {
	schema json.RawMessage
}

func (e echoTool) Name() string            { return "echo" }
func (e echoTool) Description() string     { return "echoes its input" }
func (e echoTool) Schema() json.RawMessage { return e.schema }
func (e echoTool) Execute(ctx context.Context, tc Context, args json.RawMessage) (any, error) {
	var decoded map[string]any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

func newEchoRegistry() *Registry {
	r := NewRegistry()
	r.Register(echoTool{schema: json.RawMessage(`{
		"type": "object",
		"properties": {"msg": {"type": "string"}},
		"required": ["msg"]
	}`)})
	return r
}

func TestDispatch_RejectsNonFunctionCallType(t *testing.T) {
	r := newEchoRegistry()
	out := r.Dispatch(context.Background(), Context{}, Call{Type: "not-function", Name: "echo"})

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, false, env["ok"])
	assert.Contains(t, env["error"], "unsupported tool-call type")
}

func TestDispatch_MalformedJSONArgsBecomesEnvelope(t *testing.T) {
	r := newEchoRegistry()
	out := r.Dispatch(context.Background(), Context{}, Call{Type: "function", Name: "echo", Arguments: "{not json"})

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, false, env["ok"])
}

func TestDispatch_SchemaValidationFailureBecomesEnvelope(t *testing.T) {
	r := newEchoRegistry()
	out := r.Dispatch(context.Background(), Context{}, Call{Type: "function", Name: "echo", Arguments: `{"wrong":"field"}`})

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, false, env["ok"])
}

func TestDispatch_UnknownToolNameWithoutRemoteHandlerIsEnvelope(t *testing.T) {
	r := newEchoRegistry()
	out := r.Dispatch(context.Background(), Context{}, Call{Type: "function", Name: "nonexistent", Arguments: "{}"})

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, false, env["ok"])
	assert.Contains(t, env["error"], "unknown tool")
}

func TestDispatch_UnknownToolNameFallsThroughToRemoteHandler(t *testing.T) {
	r := newEchoRegistry()
	called := false
	r.SetRemoteHandler(func(ctx context.Context, tc Context, name string, args json.RawMessage) (any, bool, error) {
		called = true
		assert.Equal(t, "mcp_thing", name)
		return map[string]string{"result": "ok"}, true, nil
	})

	out := r.Dispatch(context.Background(), Context{}, Call{Type: "function", Name: "mcp_thing", Arguments: "{}"})

	assert.True(t, called)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "ok", decoded["result"])
}

func TestDispatch_RemoteHandlerNotHandledFallsBackToUnknownEnvelope(t *testing.T) {
	r := newEchoRegistry()
	r.SetRemoteHandler(func(ctx context.Context, tc Context, name string, args json.RawMessage) (any, bool, error) {
		return nil, false, nil
	})

	out := r.Dispatch(context.Background(), Context{}, Call{Type: "function", Name: "mcp_thing", Arguments: "{}"})

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, false, env["ok"])
	assert.Contains(t, env["error"], "unknown tool")
}

func TestDispatch_SuccessReturnsMarshaledResult(t *testing.T) {
	r := newEchoRegistry()
	out := r.Dispatch(context.Background(), Context{}, Call{Type: "function", Name: "echo", Arguments: `{"msg":"hi"}`})

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "hi", decoded["msg"])
}

func TestDispatch_EmptyArgumentsTreatedAsEmptyObject(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool{schema: json.RawMessage(`{"type": "object"}`)})

	out := r.Dispatch(context.Background(), Context{}, Call{Type: "function", Name: "echo", Arguments: ""})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Empty(t, decoded)
}

func TestDispatch_ToolExecutionErrorBecomesEnvelope(t *testing.T) {
	r := NewRegistry()
	r.Register(failingTool{})

	out := r.Dispatch(context.Background(), Context{}, Call{Type: "function", Name: "failer", Arguments: "{}"})

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, false, env["ok"])
	assert.Contains(t, env["error"], "boom")
}

type failingTool struct{}

func (failingTool) Name() string            { return "failer" }
func (failingTool) Description() string     { return "always fails" }
func (failingTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (failingTool) Execute(ctx context.Context, tc Context, args json.RawMessage) (any, error) {
	return nil, doerr.New(doerr.ToolExecution, "boom")
}

func TestDefinitions_ReflectsRegisteredTools(t *testing.T) {
	r := newEchoRegistry()
	defs := r.Definitions()

	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "echo", defs[0].Function.Name)
	assert.NotEmpty(t, defs[0].Function.Parameters)
}

func TestRegister_InvalidSchemaPanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		r.Register(echoTool{schema: json.RawMessage(`not valid json at all`)})
	})
}

func TestGet_ReturnsRegisteredTool(t *testing.T) {
	r := newEchoRegistry()
	tool, ok := r.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", tool.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}
