// Package tools implements the Tool Registry & Dispatcher (spec.md §4.E):
// a static table of named tools, JSON-Schema parameter validation, and a
// name-routed dispatch contract returning JSON envelopes rather than
// raised errors, grounded on the teacher pack's agent.ToolRegistry shape
// (_examples/haasonsaas-nexus/internal/agent/tool_registry.go).
package tools

import (
	"context"
	"encoding/json"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/repomap"
	"github.com/doge-run/doge/pkg/session"
)

// Context carries the ambient state a tool needs to execute: containment
// roots, the shell allow-list, the active session, and a repomap
// accessor. It is distinct from context.Context, which carries
// cancellation only.
type Context struct {
	ProjectRoot     string
	AllowedPaths    []string
	AllowedCommands []string
	Session         *session.Session
	Repomap         func() repomap.Repomap
}

// Tool is one entry in the static table (spec.md §4.E).
type Tool interface {
	Name() string
	Description() string
	// Schema returns the tool's parameter schema as a JSON-Schema document,
	// transmitted verbatim to the LLM as part of the chat request.
	Schema() json.RawMessage
	// Execute runs the tool. The returned value is marshaled to JSON as
	// the success envelope; err is only for tool-domain failures, which
	// the dispatcher converts into a `{ok:false,error}`-shaped envelope —
	// Execute must never be used to signal infrastructural failure that
	// should interrupt the loop.
	Execute(ctx context.Context, tc Context, args json.RawMessage) (any, error)
}

// Call is a dispatch-ready tool invocation, decoded from the assistant
// message's tool_calls[] entry (spec.md §3 "Conversation message").
type Call struct {
	ID        string
	Type      string // must equal "function"
	Name      string
	Arguments string // raw JSON argument string
}

// errorEnvelope is the `{ok:false,error}` shape spec.md §6 describes for
// failures that don't have a tool-specific shape.
type errorEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func envelopeFor(err error) errorEnvelope {
	return errorEnvelope{OK: false, Error: err.Error()}
}

func marshalEnvelope(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Marshaling a tool's own result should never fail; if it does,
		// degrade to a descriptive envelope rather than panic or drop content.
		b, _ = json.Marshal(envelopeFor(doerr.New(doerr.ToolExecution, "failed to encode tool result: "+err.Error())))
	}
	return string(b)
}
