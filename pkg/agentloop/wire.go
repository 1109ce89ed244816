// Package agentloop implements the Agent Loop (spec.md §4.H) over an
// OpenAI-compatible Chat Completions wire protocol (spec.md §6),
// grounded on the HTTP-client shape of
// _examples/ternarybob-iter/pkg/llm/anthropic.go (request marshal,
// header setup, status-code branching) adapted to the OpenAI wire
// format rather than Anthropic's.
package agentloop

import "encoding/json"

// Message is one entry of the chat request's messages[] (spec.md §3
// "Conversation message", §6).
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is one assistant-requested function invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolCallFunc `json:"function"`
}

type ToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition is one entry of the chat request's tools[].
type ToolDefinition struct {
	Type     string           `json:"type"`
	Function ToolFunctionSpec `json:"function"`
}

type ToolFunctionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// CompletionRequest is the OpenAI-compatible Chat Completions request body.
type CompletionRequest struct {
	Model           string           `json:"model"`
	Messages        []Message        `json:"messages"`
	Tools           []ToolDefinition `json:"tools,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
	Stream          bool             `json:"stream,omitempty"`
	ToolChoice      string           `json:"tool_choice,omitempty"`
	ReasoningEffort string           `json:"reasoning_effort,omitempty"`
}

// CompletionResponse is the OpenAI-compatible Chat Completions response body.
type CompletionResponse struct {
	Choices []Choice   `json:"choices"`
	Usage   TokenUsage `json:"usage"`
}

type Choice struct {
	Message Message `json:"message"`
}

type TokenUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// errorBody is the shape most OpenAI-compatible servers use to report
// 4xx/5xx failures; only Message is load-bearing here.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}
