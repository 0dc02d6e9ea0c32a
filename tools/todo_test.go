package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTodoWriteEmpty(t *testing.T) {
	tool := NewTodoWriteTool()

	got, err := tool.Execute(context.Background(), map[string]any{})
	assert.NoError(t, err)
	assert.Equal(t, "No todos provided", got)
	assert.Equal(t, "No todos in memory - no todos have been added yet", tool.Status())
}

func TestTodoWriteReplacesList(t *testing.T) {
	tool := NewTodoWriteTool()

	first := []any{
		map[string]any{"id": "1", "content": "write tests", "status": "in_progress"},
		map[string]any{"id": "2", "content": "fix lint", "status": "pending"},
	}
	got, err := tool.Execute(context.Background(), map[string]any{"todos": first})
	assert.NoError(t, err)
	assert.Equal(t, "Successfully updated todo list with 2 todos", got)
	assert.Contains(t, tool.Status(), "write tests")

	second := []any{
		map[string]any{"id": "1", "content": "write tests", "status": "completed"},
	}
	got, err = tool.Execute(context.Background(), map[string]any{"todos": second})
	assert.NoError(t, err)
	assert.Equal(t, "Successfully updated todo list with 1 todos", got)
	assert.Contains(t, tool.Status(), "completed")
	assert.NotContains(t, tool.Status(), "fix lint")
}
