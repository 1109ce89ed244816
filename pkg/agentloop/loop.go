package agentloop

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/doge-run/doge/internal/config"
	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/session"
	"github.com/doge-run/doge/pkg/tools"
)

// MaxIterations is the configured cap on tool-dispatch round-trips per
// top-level instruction (spec.md §4.H step 1, §5 "Resource caps").
const MaxIterations = 128

// ToolCallTimeout bounds a single tool dispatch (spec.md §5 "per-tool-call
// timeout ~10 min").
const ToolCallTimeout = 10 * time.Minute

// EventKind distinguishes the shapes of UIEvent.
type EventKind string

const (
	EventAssistantContent EventKind = "assistant_content"
	EventToolProcessing   EventKind = "tool_processing"
	EventTodoUpdate       EventKind = "todo_update"
	EventDiff             EventKind = "diff"
)

// UIEvent is one message forwarded over ui_tx during the loop (spec.md
// §4.H step 4).
type UIEvent struct {
	Kind     EventKind
	ToolName string
	Detail   string
}

// Run implements run_agent_loop (spec.md §4.H). It returns the updated
// message list and the final assistant message (nil if the loop
// terminated by cancellation, error, or hitting the iteration cap).
func Run(
	ctx context.Context,
	client Provider,
	model string,
	registry *tools.Registry,
	toolCtx tools.Context,
	messages []Message,
	uiTx chan<- UIEvent,
	sess *session.Session,
	cfg *config.Config,
) ([]Message, *Message, error) {
	for iter := 0; iter < MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return messages, nil, doerr.Wrap(doerr.Cancelled, "agent loop cancelled", ctx.Err())
		default:
		}

		req := CompletionRequest{
			Model:    model,
			Messages: messages,
			Tools:    toolDefinitions(registry.Definitions()),
		}
		resp, err := client.Complete(ctx, req)
		if err != nil {
			return messages, nil, err
		}
		if sess != nil {
			sess.RecordRequest(resp.Usage.TotalTokens)
		}
		if len(resp.Choices) == 0 {
			return messages, nil, doerr.New(doerr.Deserialize, "completion response carried no choices")
		}

		assistant := resp.Choices[0].Message
		messages = append(messages, assistant)
		if sess != nil {
			sess.AddMessage(toSessionMessage(assistant))
		}

		if len(assistant.ToolCalls) == 0 {
			if sess != nil && cfg != nil && cfg.ShowDiff && len(sess.ChangedFiles()) > 0 && uiTx != nil {
				if diff, diffErr := gitDiff(cfg.ProjectRoot); diffErr == nil && diff != "" {
					uiTx <- UIEvent{Kind: EventDiff, Detail: diff}
				}
			}
			return messages, &assistant, nil
		}

		if assistant.Content != "" && uiTx != nil {
			uiTx <- UIEvent{Kind: EventAssistantContent, Detail: assistant.Content}
		}

		for _, tc := range assistant.ToolCalls {
			select {
			case <-ctx.Done():
				return messages, nil, doerr.Wrap(doerr.Cancelled, "agent loop cancelled mid tool-dispatch", ctx.Err())
			default:
			}

			if uiTx != nil {
				uiTx <- UIEvent{
					Kind:     EventToolProcessing,
					ToolName: tc.Function.Name,
					Detail:   sanitizeArgsForDisplay(tc.Function.Name, tc.Function.Arguments, cfg),
				}
			}

			callCtx, cancel := context.WithTimeout(ctx, ToolCallTimeout)
			content := registry.Dispatch(callCtx, toolCtx, tools.Call{
				ID:        tc.ID,
				Type:      tc.Type,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
			cancel()

			toolMsg := Message{Role: "tool", Content: content, ToolCallID: tc.ID}
			messages = append(messages, toolMsg)
			if sess != nil {
				sess.AddMessage(toSessionMessage(toolMsg))
				sess.RecordToolCall()
				sess.RecordToolOutcome(toolSucceeded(content))
			}

			if tc.Function.Name == "todo_write" && uiTx != nil {
				uiTx <- UIEvent{Kind: EventTodoUpdate, Detail: content}
			}
		}
	}

	return messages, nil, doerr.New(doerr.ToolExecution, "agent loop exceeded maximum iterations")
}

// toolSucceeded inspects the dispatcher's JSON envelope for an explicit
// falsy ok/success field; absent either key, the call is treated as
// successful (most tool payloads carry only a positive-path shape).
func toolSucceeded(content string) bool {
	var probe struct {
		OK      *bool `json:"ok"`
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return true
	}
	if probe.OK != nil {
		return *probe.OK
	}
	if probe.Success != nil {
		return *probe.Success
	}
	return true
}

// toolDefinitions converts the registry's tool table into the wire
// format's tool definitions.
func toolDefinitions(defs []tools.Definition) []ToolDefinition {
	out := make([]ToolDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, ToolDefinition{
			Type: d.Type,
			Function: ToolFunctionSpec{
				Name:        d.Function.Name,
				Description: d.Function.Description,
				Parameters:  d.Function.Parameters,
			},
		})
	}
	return out
}

func toSessionMessage(m Message) session.Message {
	var rawCalls json.RawMessage
	if len(m.ToolCalls) > 0 {
		rawCalls, _ = json.Marshal(m.ToolCalls)
	}
	return session.Message{
		Role:       m.Role,
		Content:    m.Content,
		ToolCalls:  rawCalls,
		ToolCallID: m.ToolCallID,
	}
}

// sanitizeArgsForDisplay implements spec.md §4.H step 4(b): strip
// fs_write's content payload, rewrite absolute paths under the project
// root into `@relative` form, and truncate to 120 characters.
func sanitizeArgsForDisplay(toolName, rawArgs string, cfg *config.Config) string {
	display := rawArgs
	if toolName == "fs_write" {
		var args struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err == nil {
			display = `{"path":"` + args.Path + `"}`
		}
	}

	if cfg != nil && cfg.ProjectRoot != "" {
		display = rewriteAbsolutePaths(display, cfg.ProjectRoot)
	}

	const maxLen = 120
	if len(display) > maxLen {
		display = display[:maxLen]
	}
	return display
}

func rewriteAbsolutePaths(s, root string) string {
	if root == "" || !strings.Contains(s, root) {
		return s
	}
	return strings.ReplaceAll(s, root+string(filepath.Separator), "@")
}

func gitDiff(root string) (string, error) {
	cmd := exec.Command("git", "diff")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
