package agentloop

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doge-run/doge/internal/config"
	"github.com/doge-run/doge/pkg/session"
	"github.com/doge-run/doge/pkg/tools"
)

type scriptedProvider struct {
	responses []CompletionResponse
	calls     int
}

func (p *scriptedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp := p.responses[p.calls]
	p.calls++
	return &resp, nil
}

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes" }
func (echoTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"msg":{"type":"string"}}}`)
}
func (echoTool) Execute(ctx context.Context, tc tools.Context, args json.RawMessage) (any, error) {
	return map[string]bool{"ok": true}, nil
}

func newTestRegistry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(echoTool{})
	return r
}

func TestRun_StopsWhenAssistantReturnsNoToolCalls(t *testing.T) {
	provider := &scriptedProvider{responses: []CompletionResponse{
		{Choices: []Choice{{Message: Message{Role: "assistant", Content: "done"}}}},
	}}

	messages, final, err := Run(context.Background(), provider, "test-model", newTestRegistry(), tools.Context{}, nil, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, "done", final.Content)
	assert.Len(t, messages, 1)
	assert.Equal(t, 1, provider.calls)
}

func TestRun_DispatchesToolCallThenStops(t *testing.T) {
	toolCall := ToolCall{ID: "call-1", Type: "function", Function: ToolCallFunc{Name: "echo", Arguments: `{"msg":"hi"}`}}
	provider := &scriptedProvider{responses: []CompletionResponse{
		{Choices: []Choice{{Message: Message{Role: "assistant", ToolCalls: []ToolCall{toolCall}}}}},
		{Choices: []Choice{{Message: Message{Role: "assistant", Content: "finished"}}}},
	}}

	uiTx := make(chan UIEvent, 10)
	messages, final, err := Run(context.Background(), provider, "test-model", newTestRegistry(), tools.Context{}, nil, uiTx, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, "finished", final.Content)

	var sawToolMessage bool
	for _, m := range messages {
		if m.Role == "tool" {
			sawToolMessage = true
			assert.Equal(t, "call-1", m.ToolCallID)
		}
	}
	assert.True(t, sawToolMessage)
	assert.Equal(t, 2, provider.calls)
}

func TestRun_RecordsSessionStateAcrossToolDispatch(t *testing.T) {
	toolCall := ToolCall{ID: "call-1", Type: "function", Function: ToolCallFunc{Name: "echo", Arguments: `{}`}}
	provider := &scriptedProvider{responses: []CompletionResponse{
		{Choices: []Choice{{Message: Message{Role: "assistant", ToolCalls: []ToolCall{toolCall}}}}, Usage: TokenUsage{TotalTokens: 10}},
		{Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}}},
	}}

	sess := session.New("sess-1", t.TempDir())
	_, _, err := Run(context.Background(), provider, "test-model", newTestRegistry(), tools.Context{}, nil, nil, sess, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sess.Meta().ToolCallCount)
	assert.Equal(t, 1, sess.Meta().ToolSuccessCount)
	assert.Equal(t, 10, sess.Meta().TotalTokens)
}

func TestRun_ReturnsErrorWhenProviderFails(t *testing.T) {
	provider := &erroringProvider{}
	_, final, err := Run(context.Background(), provider, "test-model", newTestRegistry(), tools.Context{}, nil, nil, nil, nil)
	require.Error(t, err)
	assert.Nil(t, final)
}

type erroringProvider struct{}

func (erroringProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return nil, assertionError{}
}

type assertionError struct{}

func (assertionError) Error() string { return "provider failure" }

func TestRun_CancelledContextStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{responses: []CompletionResponse{
		{Choices: []Choice{{Message: Message{Role: "assistant", Content: "unreachable"}}}},
	}}

	_, final, err := Run(ctx, provider, "test-model", newTestRegistry(), tools.Context{}, nil, nil, nil, nil)
	require.Error(t, err)
	assert.Nil(t, final)
	assert.Equal(t, 0, provider.calls)
}

func TestSanitizeArgsForDisplay_StripsFsWriteContent(t *testing.T) {
	raw := `{"path":"/project/main.go","content":"package main\n\nfunc main() {}\n"}`
	cfg := &config.Config{ProjectRoot: "/project"}

	display := sanitizeArgsForDisplay("fs_write", raw, cfg)

	assert.NotContains(t, display, "package main")
	assert.Contains(t, display, "@main.go")
}

func TestSanitizeArgsForDisplay_TruncatesLongArguments(t *testing.T) {
	raw := `{"query":"` + string(make([]byte, 200)) + `"}`
	display := sanitizeArgsForDisplay("search_text", raw, nil)
	assert.LessOrEqual(t, len(display), 120)
}

func TestToolSucceeded_DefaultsTrueWhenNoOkOrSuccessField(t *testing.T) {
	assert.True(t, toolSucceeded(`{"result":"anything"}`))
}

func TestToolSucceeded_FalseWhenOkFieldIsFalse(t *testing.T) {
	assert.False(t, toolSucceeded(`{"ok":false,"error":"boom"}`))
}

func TestToolSucceeded_FalseWhenSuccessFieldIsFalse(t *testing.T) {
	assert.False(t, toolSucceeded(`{"success":false}`))
}
