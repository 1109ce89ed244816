package agentloop

import "context"

// Provider is the seam between the agent loop and a concrete LLM
// transport. Client (the OpenAI-compatible HTTP transport spec.md §6
// mandates) implements it directly; pkg/agentloop/provider holds
// alternates selected by the `llm.provider` config (SPEC_FULL.md DOMAIN
// STACK: google.golang.org/genai).
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
