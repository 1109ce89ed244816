package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doge-run/doge/pkg/tools"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes its input" }
func (echoTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"msg":{"type":"string"}}}`)
}
func (echoTool) Execute(ctx context.Context, tc tools.Context, args json.RawMessage) (any, error) {
	var decoded map[string]any
	_ = json.Unmarshal(args, &decoded)
	return decoded, nil
}

func TestNew_BuildsServerWithoutError(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(echoTool{})

	s := New("doge", "0.1.0", registry, tools.Context{})
	require.NotNil(t, s)
	require.NotNil(t, s.Router())
}

func TestHandlerFor_DispatchesThroughRegistry(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(echoTool{})

	s := New("doge", "0.1.0", registry, tools.Context{})
	handler := s.handlerFor("echo")

	req := mcp.CallToolRequest{Params: mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]any{"msg": "hi"},
	}}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	assert.Equal(t, "hi", decoded["msg"])
}
