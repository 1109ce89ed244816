// Package compact implements the History Compactor (spec.md §4.I):
// a one-shot structured-summary request that replaces prior conversation
// history with a single synthesized user message.
package compact

import (
	"context"
	"strings"

	"github.com/doge-run/doge/pkg/agentloop"
	"github.com/doge-run/doge/pkg/doerr"
)

// SystemPrompt instructs the model to produce the XML snapshot shape
// spec.md §4.I names: overall_goal, key_knowledge, file_system_state,
// recent_actions, current_plan.
const SystemPrompt = `You are a conversation summarizer. Given the full conversation history ` +
	`below, produce a single XML document with exactly these top-level elements, in order: ` +
	`<overall_goal>, <key_knowledge>, <file_system_state>, <recent_actions>, <current_plan>. ` +
	`Be concise but preserve every fact a continuation would need. Do not include anything ` +
	`outside the XML document.`

// Compact issues one chat request summarizing history and returns the
// single user message that should replace it. An empty model response is
// treated as failure (spec.md §4.I): the caller decides whether to
// continue with raw history or abort.
func Compact(ctx context.Context, client agentloop.Provider, model string, history []agentloop.Message) (agentloop.Message, error) {
	req := agentloop.CompletionRequest{
		Model: model,
		Messages: append([]agentloop.Message{
			{Role: "system", Content: SystemPrompt},
		}, history...),
	}

	resp, err := client.Complete(ctx, req)
	if err != nil {
		return agentloop.Message{}, err
	}
	if len(resp.Choices) == 0 {
		return agentloop.Message{}, doerr.New(doerr.ToolExecution, "compaction produced no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return agentloop.Message{}, doerr.New(doerr.ToolExecution, "compaction returned an empty summary")
	}

	return agentloop.Message{Role: "user", Content: content}, nil
}

// Replace builds the new conversation: the original system prompt (if
// any, as the first message) followed by the single compacted user
// message (spec.md §4.I "replaces the prior conversation except the
// system prompt").
func Replace(original []agentloop.Message, summary agentloop.Message) []agentloop.Message {
	var out []agentloop.Message
	if len(original) > 0 && original[0].Role == "system" {
		out = append(out, original[0])
	}
	return append(out, summary)
}
