package agent

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

const basePrompt = `You are Quickstar, an interactive CLI agent that helps users with software
engineering and general computer tasks.

# Core behavior

- Be concise and direct. Answer the user's question first, then add detail
  only when it changes what the user should do next.
- Use the tools available to you to inspect the system instead of guessing.
  Prefer reading a file over assuming its contents.
- When a task has several steps, record them with the todo_write tool and
  keep the list updated as you make progress.
- For large or self-contained pieces of work, delegate to a sub-agent with
  the task tool so the main conversation stays small.
- If the conversation history grows stale or irrelevant, use the
  smart_context_cropper tool to remove old messages you no longer need.
- Never invent file contents, command output, or API results.

# Tool use

- Only call tools that are listed as available.
- Fill in every required parameter.
- When a tool call fails, read the error message and adjust; do not repeat
  the identical call.`

// systemPrompt assembles the root system prompt: behavioral rules plus a
// snapshot of the environment the agent is running in.
func systemPrompt() string {
	return basePrompt + "\n\n" + environmentInfo()
}

// environmentInfo reports the facts about the local machine the model needs
// to write correct commands. Collected once per conversation.
func environmentInfo() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "unknown"
	}

	osVersion := "unknown"
	if out, err := exec.Command("uname", "-r").Output(); err == nil {
		osVersion = string(out)
		if n := len(osVersion); n > 0 && osVersion[n-1] == '\n' {
			osVersion = osVersion[:n-1]
		}
	}

	return fmt.Sprintf(`Here is useful information about the environment you are running in:
<env>
Working directory: %s
Is directory a git repo: %s
Platform: %s
OS Version: %s
Today's date: %s
</env>`,
		wd, isGitRepo(wd), runtime.GOOS, osVersion, time.Now().Format("2006-01-02"))
}

func isGitRepo(dir string) string {
	if info, err := os.Stat(dir + "/.git"); err == nil && info.IsDir() {
		return "Yes"
	}
	return "No"
}
