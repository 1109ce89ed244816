// Package provider holds alternate agentloop.Provider implementations
// selected by the `llm.provider` config, alongside the OpenAI-compatible
// transport spec.md §6 mandates as the default (SPEC_FULL.md DOMAIN
// STACK: google.golang.org/genai).
package provider

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/doge-run/doge/pkg/agentloop"
	"github.com/doge-run/doge/pkg/doerr"
)

// Gemini adapts the Gemini API to agentloop.Provider, translating the
// OpenAI-shaped CompletionRequest/CompletionResponse spec.md §6 defines
// into genai's Content/Part/FunctionCall vocabulary.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini provider for the given API key and model.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, doerr.Wrap(doerr.Network, "failed to build gemini client", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete implements agentloop.Provider.
func (g *Gemini) Complete(ctx context.Context, req agentloop.CompletionRequest) (*agentloop.CompletionResponse, error) {
	cfg := &genai.GenerateContentConfig{}

	var contents []*genai.Content
	for _, m := range req.Messages {
		if m.Role == "system" {
			cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
			continue
		}
		contents = append(contents, messageToContent(m))
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  schemaFromJSON(t.Function.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, doerr.Wrap(doerr.Cancelled, "gemini request cancelled", ctx.Err())
		}
		return nil, doerr.Wrap(doerr.Network, "gemini request failed", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, doerr.New(doerr.Deserialize, "gemini response carried no candidates")
	}

	msg := contentToMessage(resp.Candidates[0].Content)

	usage := agentloop.TokenUsage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &agentloop.CompletionResponse{
		Choices: []agentloop.Choice{{Message: msg}},
		Usage:   usage,
	}, nil
}

func messageToContent(m agentloop.Message) *genai.Content {
	role := "user"
	switch m.Role {
	case "assistant":
		role = "model"
	case "tool":
		return &genai.Content{Role: "user", Parts: []*genai.Part{{
			FunctionResponse: &genai.FunctionResponse{
				Name:     m.ToolCallID,
				Response: map[string]any{"content": m.Content},
			},
		}}}
	}

	parts := make([]*genai.Part, 0, 1+len(m.ToolCalls))
	if m.Content != "" {
		parts = append(parts, &genai.Part{Text: m.Content})
	}
	for _, tc := range m.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{Name: tc.Function.Name, Args: args}})
	}
	return &genai.Content{Role: role, Parts: parts}
}

func contentToMessage(c *genai.Content) agentloop.Message {
	msg := agentloop.Message{Role: "assistant"}
	for _, p := range c.Parts {
		if p.Text != "" {
			msg.Content += p.Text
		}
		if p.FunctionCall != nil {
			args, _ := json.Marshal(p.FunctionCall.Args)
			msg.ToolCalls = append(msg.ToolCalls, agentloop.ToolCall{
				ID:   p.FunctionCall.Name,
				Type: "function",
				Function: agentloop.ToolCallFunc{
					Name:      p.FunctionCall.Name,
					Arguments: string(args),
				},
			})
		}
	}
	return msg
}

// schemaFromJSON converts a JSON-Schema document (as produced by
// pkg/tools.SchemaOf for the OpenAI-compatible transport) into a
// *genai.Schema. Only the subset genai actually validates against
// (object/string/number/integer/boolean/array, properties, required,
// items, description) is translated; anything else is dropped rather
// than causing a hard failure, since the instruction still reaches the
// model via the function name and description either way.
func schemaFromJSON(raw json.RawMessage) *genai.Schema {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	return schemaFromMap(doc)
}

func schemaFromMap(doc map[string]any) *genai.Schema {
	s := &genai.Schema{}
	if t, ok := doc["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := doc["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := doc["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if sub, ok := v.(map[string]any); ok {
				s.Properties[name] = schemaFromMap(sub)
			}
		}
	}
	if req, ok := doc["required"].([]any); ok {
		for _, r := range req {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	}
	if items, ok := doc["items"].(map[string]any); ok {
		s.Items = schemaFromMap(items)
	}
	if s.Type == "" {
		s.Type = genai.TypeObject
	}
	return s
}
