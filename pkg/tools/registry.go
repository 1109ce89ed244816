package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/doge-run/doge/pkg/doerr"
)

// RemoteHandler is the MCP extension point: when a tool name has no local
// registration, the registry offers it to handler before giving up
// (spec.md §4.E "Unknown tool names fall through to an optional remote-
// tool extension point").
type RemoteHandler func(ctx context.Context, tc Context, name string, args json.RawMessage) (any, bool, error)

// Registry is the static tool table plus compiled-schema cache.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	schemas  map[string]*jsonschema.Schema
	remote   RemoteHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds tool to the table, pre-compiling its schema for argument
// validation. A schema that fails to compile is a programming error — it
// panics, since it can only happen during fixed, static table setup.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	r.tools[name] = tool

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(tool.Schema()))
	if err != nil {
		panic(fmt.Sprintf("tools: invalid schema for %q: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	resourceName := name + ".schema.json"
	if err := compiler.AddResource(resourceName, doc); err != nil {
		panic(fmt.Sprintf("tools: cannot add schema resource for %q: %v", name, err))
	}
	sch, err := compiler.Compile(resourceName)
	if err != nil {
		panic(fmt.Sprintf("tools: cannot compile schema for %q: %v", name, err))
	}
	r.schemas[name] = sch
}

// SetRemoteHandler installs the MCP fallback handler.
func (r *Registry) SetRemoteHandler(h RemoteHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remote = h
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the static table as OpenAI-compatible tool
// definitions (spec.md §6 "tools[] (type=\"function\", function.name,
// description, parameters:JSON-Schema)").
type Definition struct {
	Type     string          `json:"type"`
	Function FunctionDef     `json:"function"`
}

type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, Definition{
			Type: "function",
			Function: FunctionDef{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Schema(),
			},
		})
	}
	return defs
}

// Dispatch implements the dispatch contract of spec.md §4.E: reject any
// type other than "function", parse arguments (malformed JSON becomes a
// structured error envelope rather than a raised error), route by name,
// validate against the compiled schema, execute, and always return a
// JSON-encoded string — success payload or `{ok:false,error}` envelope.
// Dispatch itself never returns a Go error: every failure mode it
// recognizes is encoded into the returned string, per spec.md §7
// "failures are returned as an envelope to the agent, never raised".
func (r *Registry) Dispatch(ctx context.Context, tc Context, call Call) string {
	if call.Type != "" && call.Type != "function" {
		return marshalEnvelope(envelopeFor(doerr.New(doerr.ToolArgInvalid, "unsupported tool-call type: "+call.Type)))
	}

	r.mu.RLock()
	tool, ok := r.tools[call.Name]
	schema := r.schemas[call.Name]
	remote := r.remote
	r.mu.RUnlock()

	if !ok {
		if remote != nil {
			var raw json.RawMessage
			if call.Arguments != "" {
				raw = json.RawMessage(call.Arguments)
			} else {
				raw = json.RawMessage("{}")
			}
			result, handled, err := remote(ctx, tc, call.Name, raw)
			if handled {
				if err != nil {
					return marshalEnvelope(envelopeFor(err))
				}
				return marshalEnvelope(result)
			}
		}
		return marshalEnvelope(envelopeFor(doerr.New(doerr.ToolArgInvalid, "unknown tool: "+call.Name)))
	}

	argBytes := []byte(call.Arguments)
	if len(bytes.TrimSpace(argBytes)) == 0 {
		argBytes = []byte("{}")
	}

	var decoded any
	if err := json.Unmarshal(argBytes, &decoded); err != nil {
		return marshalEnvelope(envelopeFor(doerr.Wrap(doerr.ToolArgInvalid, "malformed tool arguments", err)))
	}

	if schema != nil {
		inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(argBytes))
		if err == nil {
			if err := schema.Validate(inst); err != nil {
				return marshalEnvelope(envelopeFor(doerr.Wrap(doerr.ToolArgInvalid, "arguments failed schema validation", err)))
			}
		}
	}

	result, err := tool.Execute(ctx, tc, argBytes)
	if err != nil {
		return marshalEnvelope(envelopeFor(err))
	}
	return marshalEnvelope(result)
}
