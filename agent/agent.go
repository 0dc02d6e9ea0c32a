package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/quickstar-ai/quickstar/config"
	"github.com/quickstar-ai/quickstar/errors"
	"github.com/quickstar-ai/quickstar/llm"
	"github.com/quickstar-ai/quickstar/session"
	"github.com/quickstar-ai/quickstar/tools"
)

// UI is the display and approval collaborator. Everything here is a side
// effect; the orchestrator never reads anything back except the approval
// verdict.
type UI interface {
	PrintAssistantMessage(text string)
	PrintError(text string)
	PrintInfo(text string)
	StartStream()
	StreamContent(chunk string)
	StopStream()
	ShowToolCall(name string, args map[string]any)
	ShowToolResult(name string, result string)
	// WaitForUserApproval blocks for a human verdict on an approval-gated
	// tool call. The reason is empty when approved.
	WaitForUserApproval(description string) (bool, string)
}

// Agent drives the conversation: it builds requests from current history,
// obtains (streamed) completions, dispatches tool calls, and loops until the
// model produces a response with no tool calls. All collaborators are
// injected; the agent holds no global state.
type Agent struct {
	Config    *config.Config
	history   *session.Manager
	registry  *tools.Registry
	client    llm.Client
	ui        UI
	subagents map[string]string
}

func New(cfg *config.Config, history *session.Manager, registry *tools.Registry, client llm.Client, ui UI) *Agent {
	return &Agent{
		Config:   cfg,
		history:  history,
		registry: registry,
		client:   client,
		ui:       ui,
		subagents: map[string]string{
			"general-purpose": generalPurposePrompt,
		},
	}
}

// StartConversation seeds the root session with the system prompt. Call
// once before the first ProcessTurn.
func (a *Agent) StartConversation() {
	a.history.AddMessage(session.TextMessage(session.RoleSystem, systemPrompt()))
}

// ProcessTurn appends the user's input and drives the loop until the model
// produces a response with no tool calls. The caller owns reading the next
// input.
func (a *Agent) ProcessTurn(ctx context.Context, userInput string) error {
	a.history.AddMessage(session.TextMessage(session.RoleUser, userInput))
	return a.run(ctx)
}

// RunTask forks a nested sub-conversation: a new session is pushed, seeded
// with the subagent's system prompt and the given task prompt, driven to
// quiescence, then popped. Only the final assistant text is visible to the
// parent. Implements tools.TaskRunner.
func (a *Agent) RunTask(ctx context.Context, subagentType, prompt string) (string, error) {
	sysPrompt, ok := a.subagents[subagentType]
	if !ok {
		return "", errors.New("subagent type '%s' not found", subagentType)
	}

	a.ui.PrintInfo(fmt.Sprintf("Submitting task to %s sub-agent: %s", subagentType, prompt))

	a.history.StartNewChat()
	a.history.AddMessage(session.TextMessage(session.RoleSystem, sysPrompt))
	a.history.AddMessage(session.TextMessage(session.RoleUser, prompt))

	if err := a.run(ctx); err != nil {
		// A sub-agent failing outside its own per-call recovery means the
		// session stack can no longer be trusted; the parent cannot be
		// resumed safely.
		a.ui.PrintError(fmt.Sprintf("System error occurred during running task: %v", err))
		os.Exit(1)
	}

	return a.history.FinishChatGetResponse(), nil
}

// run is the conversation loop. It iterates instead of recursing so a
// long-running session cannot grow the call stack; each iteration is one
// model turn.
func (a *Agent) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		a.compressIfNeeded()

		request := a.messagesWithCacheMark()
		activeTools := a.registry.ActiveTools(ctx)

		a.ui.StartStream()
		response, usage, streamErr := a.client.ChatStream(ctx, request, activeTools, a.ui.StreamContent)
		a.ui.StopStream()

		if streamErr != nil {
			a.ui.PrintError(fmt.Sprintf("Streaming response processing error: %v", streamErr))
			a.ui.PrintInfo("Trying non-streaming mode...")

			var fallbackErr error
			response, usage, fallbackErr = a.client.Chat(ctx, request, activeTools)
			if fallbackErr != nil {
				a.ui.PrintError(fmt.Sprintf("Non-streaming mode also failed: %v", fallbackErr))
				// The single dead-end in the loop: the turn ends with a
				// user-visible apology and the session stays usable.
				errMsg := session.TextMessage(session.RoleAssistant,
					fmt.Sprintf("Sorry, I encountered a technical problem: %v", streamErr))
				a.history.AddMessage(errMsg)
				a.ui.PrintAssistantMessage(errMsg.Text())
				return nil
			}
			a.ui.PrintAssistantMessage(response.Text())
		}

		if usage != nil {
			a.history.UpdateTokenUsage(*usage)
		}
		a.history.AddMessage(*response)

		// A single turn can both consume and immediately need to shed
		// context, so the policy runs again after the append.
		a.compressIfNeeded()

		if len(response.ToolCalls) == 0 {
			a.printStatusLine()
			// Top-level: the caller reads the next user input. Nested task:
			// control returns to the task tool, which pops the session.
			return nil
		}

		a.handleToolCalls(ctx, response.ToolCalls)
		a.printStatusLine()
	}
}

func (a *Agent) compressIfNeeded() {
	if a.history.AutoCompress() {
		a.ui.PrintInfo("Context history is too long, compressed the oldest messages")
	}
}

// messagesWithCacheMark returns a copy of the current session with the last
// content segment of the last message annotated for provider-side caching.
// The annotation is applied to the copy only; stored history stays clean.
func (a *Agent) messagesWithCacheMark() []session.Message {
	messages := a.history.CurrentMessages()
	if len(messages) == 0 {
		return messages
	}
	last := &messages[len(messages)-1]
	if len(last.Content) == 0 {
		return messages
	}
	last.Content[len(last.Content)-1].CacheControl = &session.CacheControl{Type: "ephemeral"}
	return messages
}

// handleToolCalls dispatches each requested call strictly in request order.
// Per-call failures (malformed arguments, denial, execution errors) become
// tool-role messages and never abort the batch.
func (a *Agent) handleToolCalls(ctx context.Context, toolCalls []session.ToolCall) {
	for i, tc := range toolCalls {
		isLast := i == len(toolCalls)-1

		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			a.ui.PrintError(fmt.Sprintf("Tool parameter parsing failed: %v", err))
			a.addToolResponse(tc, "tool call failed due to JSONDecodeError", isLast)
			continue
		}

		needApprove, toolArgs := tools.ExtractApprovalFlag(args)
		if needApprove {
			approved, reason := a.ui.WaitForUserApproval(fmt.Sprintf("Tool: %s, args: %v", tc.Name, args))
			if !approved {
				a.addToolResponse(tc, fmt.Sprintf("user denied to execute tool, user input: %s", reason), isLast)
				continue
			}
		}

		a.ui.ShowToolCall(tc.Name, toolArgs)
		result := a.registry.RunTool(ctx, tc.Name, toolArgs)
		a.ui.ShowToolResult(tc.Name, result)
		a.addToolResponse(tc, result, isLast)
	}
}

// addToolResponse appends the tool-role answer for one call. After the last
// call of a batch an extra content segment carries the todo status reminder
// so the model re-orients after a run of side effects.
func (a *Agent) addToolResponse(tc session.ToolCall, content string, isLast bool) {
	msg := session.Message{
		Role:       session.RoleTool,
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Content:    []session.ContentPart{{Type: "text", Text: content}},
	}
	if isLast {
		msg.Content = append(msg.Content, session.ContentPart{Type: "text", Text: a.reminder()})
	}
	a.history.AddMessage(msg)
}

func (a *Agent) reminder() string {
	return fmt.Sprintf(`## Current Todo Status
%s

Remember to check and update your todos regularly to stay organized and productive.`,
		a.registry.ToolStatus("todo_write"))
}

func (a *Agent) printStatusLine() {
	a.ui.PrintInfo(fmt.Sprintf("(context window: %s%%, total cost: %.2f$)",
		a.history.ContextWindow(), a.client.TotalCost()))
}

// RegisterSubagentPrompt adds a subagent type to the fixed registry. Meant
// for wiring at startup, not for runtime editing.
func (a *Agent) RegisterSubagentPrompt(subagentType, prompt string) {
	a.subagents[subagentType] = prompt
}
