package tools

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/quickstar-ai/quickstar/errors"
)

const defaultCommandTimeout = 30

// CmdRunnerTool executes shell commands, optionally restricted by an
// allowlist of regex patterns.
type CmdRunnerTool struct {
	allowedCommands []string
}

func NewCmdRunnerTool(allowedCommands []string) *CmdRunnerTool {
	return &CmdRunnerTool{allowedCommands: allowedCommands}
}

func (t *CmdRunnerTool) Name() string { return "cmd_runner" }

func (t *CmdRunnerTool) Description() string {
	return "Execute a shell command on the system, need to require user approval before execution " +
		"if this command will make a damage to user's computer. You need to make an explanation " +
		"why you need to run this command."
}

func (t *CmdRunnerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"need_user_approve": map[string]any{
				"type":        "boolean",
				"description": "Whether the command requires explicit user approval before execution",
				"default":     true,
			},
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Maximum number of seconds to wait for the command to finish",
				"default":     defaultCommandTimeout,
			},
		},
		"required": []string{"need_user_approve", "command"},
	}
}

func (t *CmdRunnerTool) Status() string { return "" }

func (t *CmdRunnerTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return "No command provided", nil
	}

	// Allowlist is opt-in: an empty list means every command is permitted.
	if len(t.allowedCommands) > 0 {
		allowed, err := isCommandAllowed(command, t.allowedCommands)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", errors.New("command '%s' is not in the list of allowed commands", command)
		}
	}

	timeout := defaultCommandTimeout
	if v, ok := args["timeout"].(float64); ok && v > 0 {
		timeout = int(v)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	output, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return "Command timed out", nil
	}
	if err != nil {
		return fmt.Sprintf("Error: %s\n%s", err, string(output)), nil
	}
	if len(output) == 0 {
		return "Command executed successfully and no return", nil
	}
	return string(output), nil
}

// isCommandAllowed checks a command against the allowlist (regex patterns,
// with literal comparison as the fallback for invalid patterns).
func isCommandAllowed(command string, allowed []string) (bool, error) {
	for _, pattern := range allowed {
		re, err := regexp.Compile(pattern)
		if err != nil {
			if command == pattern {
				return true, nil
			}
			continue
		}
		if re.MatchString(command) {
			return true, nil
		}
	}
	return false, nil
}
