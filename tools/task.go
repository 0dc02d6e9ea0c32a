package tools

import (
	"context"
	"fmt"
)

// TaskRunner drives a nested sub-conversation to quiescence and returns its
// final assistant text. Implemented by the agent; the interface keeps this
// package free of a dependency on the orchestrator.
type TaskRunner interface {
	RunTask(ctx context.Context, subagentType, prompt string) (string, error)
}

// TaskTool forks a self-contained sub-conversation. From the parent's
// perspective the whole sub-agent run is an ordinary tool call whose result
// is the sub-agent's final report.
type TaskTool struct {
	runner TaskRunner
}

func NewTaskTool(runner TaskRunner) *TaskTool {
	return &TaskTool{runner: runner}
}

func (t *TaskTool) Name() string { return "task" }

func (t *TaskTool) Description() string {
	return `Launch a new agent to handle complex, multi-step tasks autonomously.

Available agent types and the tools they have access to:
- general-purpose: General-purpose agent for researching complex questions, searching for code, and executing multi-step tasks. When you are searching for a keyword or file and are not confident that you will find the right match in the first few tries use this agent to perform the search for you. (Tools: *)

When using the task tool, you must specify a subagent_type parameter to select which agent type to use.

When NOT to use the task tool:
- When you want to read a specific file path
- When you are searching for a specific class definition like "class Foo"
- When you are searching for code within a specific file or set of 2-3 files
- Other tasks that are not related to the agent descriptions above

Usage notes:
1. When the agent is done, it will return a single message back to you. The result returned by the agent is not visible to the user. To show the user the result, you should send a text message back to the user with a concise summary of the result.
2. Each agent invocation is stateless. You will not be able to send additional messages to the agent, nor will the agent be able to communicate with you outside of its final report. Therefore, your prompt should contain a highly detailed task description for the agent to perform autonomously and you should specify exactly what information the agent should return back to you in its final and only message to you.
3. The agent's outputs should generally be trusted.
4. Clearly tell the agent whether you expect it to write code or just to do research (search, file reads, etc.), since it is not aware of the user's intent.`
}

func (t *TaskTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "A short (3-5 word) description of the task",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "The task for the agent to perform",
			},
			"subagent_type": map[string]any{
				"type":        "string",
				"description": "The type of specialized agent to use for this task",
			},
		},
		"required": []string{"description", "prompt", "subagent_type"},
	}
}

func (t *TaskTool) Status() string { return "" }

func (t *TaskTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	prompt, _ := args["prompt"].(string)
	subagentType, _ := args["subagent_type"].(string)
	if prompt == "" {
		return "Prompt is empty", nil
	}
	if subagentType == "" {
		return "Subagent type is empty", nil
	}

	response, err := t.runner.RunTask(ctx, subagentType, prompt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task Finished with response: %s", response), nil
}
