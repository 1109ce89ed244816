// Package shelltool implements the Shell Hook half of spec.md §4.G:
// execute_bash, screened against a command-prefix allow-list and
// reporting exit status as an envelope rather than a raised error,
// grounded on the shell-exec shape of
// _examples/haasonsaas-nexus/internal/tools/exec/tools.go.
package shelltool

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/doge-run/doge/pkg/doerr"
	"github.com/doge-run/doge/pkg/tools"
)

type executeBashArgs struct {
	Command string `json:"command" jsonschema:"required,description=Shell command line to run under /bin/sh -c."`
	Cwd     string `json:"cwd,omitempty" jsonschema:"description=Working directory (absolute). Defaults to the project root."`
}

type executeBashResult struct {
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// ExecuteBash implements `execute_bash` (spec.md §4.G).
type ExecuteBash struct{}

func (ExecuteBash) Name() string        { return "execute_bash" }
func (ExecuteBash) Description() string { return "Run a shell command, subject to the configured command allow-list." }
func (ExecuteBash) Schema() json.RawMessage { return tools.SchemaOf((*executeBashArgs)(nil)) }

func (ExecuteBash) Execute(ctx context.Context, tc tools.Context, raw json.RawMessage) (any, error) {
	var args executeBashArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, doerr.Wrap(doerr.ToolArgInvalid, "invalid execute_bash arguments", err)
	}
	command := strings.TrimSpace(args.Command)
	if command == "" {
		return nil, doerr.New(doerr.ToolArgInvalid, "command must not be empty")
	}
	if !AllowListed(command, tc.AllowedCommands) {
		return nil, doerr.New(doerr.Shell, "command is not allowed: "+command)
	}

	cwd := tc.ProjectRoot
	if args.Cwd != "" {
		cwd = args.Cwd
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = cwd
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			// Process never started (missing shell, context cancellation, etc.):
			// still report as an envelope, not a raised error.
			return executeBashResult{Success: false, ExitCode: -1, Stdout: stdout.String(), Stderr: runErr.Error()}, nil
		}
	}

	return executeBashResult{
		Success:  exitCode == 0,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// AllowListed implements spec.md §4.G's exact-or-prefix-plus-space rule:
// a command is accepted iff it equals an allow-list entry, or begins
// with an entry followed immediately by a space. An empty allow-list
// means "allow all" (spec.md §8: "carg" must not accept "cargo").
func AllowListed(command string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, entry := range allowed {
		if command == entry || strings.HasPrefix(command, entry+" ") {
			return true
		}
	}
	return false
}
