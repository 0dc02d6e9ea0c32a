package tools

import (
	"context"
	"fmt"

	"github.com/quickstar-ai/quickstar/session"
)

// ContextCropperTool is the tool face of the history manager's explicit
// crop. Unlike automatic compression the model decides what to remove and
// narrates the deletion through its summary argument.
type ContextCropperTool struct {
	history *session.Manager
}

func NewContextCropperTool(history *session.Manager) *ContextCropperTool {
	return &ContextCropperTool{history: history}
}

func (t *ContextCropperTool) Name() string { return "smart_context_cropper" }

func (t *ContextCropperTool) Description() string {
	return `Crop conversation history from either the top (after system messages) or the bottom, while ensuring the latest user message is never removed.

Before executing smart_context_cropper, follow these steps:
1. Crop Rules
    - Always preserve the latest user message.
    - Top crop: remove the oldest non-system messages that appear after the system message.
    - Bottom crop: remove the most recent messages first.

2. Approval Requirements
    - Always consider the user's current task.
    - If you are certain that the messages to be cropped are unrelated to the user's current task, you may proceed without explicit approval.
    - If there is any uncertainty, request confirmation before cropping.

3. Handling Removed Content
    - If cropped messages contain useful information, provide a concise summary before deletion.
    - Ensure summaries retain any context that might still be relevant to the user's ongoing task.
    - If nothing useful is in the deleted messages, deleted_messages_summary should be empty.`
}

func (t *ContextCropperTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"need_user_approve": map[string]any{
				"type":        "boolean",
				"description": "Whether the crop messages action requires explicit user approval before execution",
				"default":     true,
			},
			"crop_direction": map[string]any{
				"type":        "string",
				"enum":        []string{"top", "bottom"},
				"description": "Direction to crop messages. 'top' removes messages from the start (after system messages), 'bottom' removes from the end.",
			},
			"crop_amount": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Number of messages to remove. Must not exceed the allowed limit for preserving the latest user message.",
			},
			"deleted_messages_summary": map[string]any{
				"type":        "string",
				"description": "Summary of the deleted messages.",
			},
		},
		"required": []string{"need_user_approve", "crop_direction", "crop_amount", "deleted_messages_summary"},
	}
}

func (t *ContextCropperTool) Status() string { return "" }

func (t *ContextCropperTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	amount, ok := args["crop_amount"].(float64)
	if !ok || amount <= 0 {
		return "Invalid crop amount. It must be positive.", nil
	}

	direction := session.CropDirection(fmt.Sprint(args["crop_direction"]))
	switch direction {
	case session.CropTop, session.CropBottom:
	default:
		return fmt.Sprintf("Invalid crop direction '%s'. It must be 'top' or 'bottom'.", direction), nil
	}

	return t.history.CropMessages(direction, int(amount)), nil
}
