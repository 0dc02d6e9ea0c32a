package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// TodoWriteTool stores a complete todo list in memory, replacing any
// existing todos. Its status is echoed back to the model after every tool
// batch so the model re-orients after a run of side effects.
type TodoWriteTool struct {
	todos []any
}

func NewTodoWriteTool() *TodoWriteTool {
	return &TodoWriteTool{}
}

func (t *TodoWriteTool) Name() string { return "todo_write" }

func (t *TodoWriteTool) Description() string {
	return "Stores a complete todo list in memory, replacing any existing todos."
}

func (t *TodoWriteTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"todos": map[string]any{
				"type":        "array",
				"description": "The updated todo list",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content": map[string]any{"type": "string", "minLength": 1},
						"status":  map[string]any{"type": "string", "enum": []string{"pending", "in_progress", "completed"}},
						"id":      map[string]any{"type": "string"},
					},
					"required":             []string{"content", "status", "id"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"todos"},
		"additionalProperties": false,
	}
}

func (t *TodoWriteTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	todos, _ := args["todos"].([]any)
	if len(todos) == 0 {
		return "No todos provided", nil
	}
	t.todos = todos
	return fmt.Sprintf("Successfully updated todo list with %d todos", len(todos)), nil
}

func (t *TodoWriteTool) Status() string {
	if len(t.todos) == 0 {
		return "No todos in memory - no todos have been added yet"
	}
	data, err := json.MarshalIndent(map[string]any{"todos": t.todos}, "", "  ")
	if err != nil {
		return fmt.Sprintf("todo list unavailable: %s", err)
	}
	return string(data)
}
