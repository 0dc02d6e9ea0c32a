package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quickstar-ai/quickstar/session"
)

func TestContextCropperInvalidAmount(t *testing.T) {
	tool := NewContextCropperTool(session.NewManager(1000, 0.8))

	for _, args := range []map[string]any{
		{"crop_direction": "top", "crop_amount": float64(0), "deleted_messages_summary": ""},
		{"crop_direction": "top", "crop_amount": float64(-1), "deleted_messages_summary": ""},
		{"crop_direction": "top", "deleted_messages_summary": ""},
		{"crop_direction": "top", "crop_amount": "two", "deleted_messages_summary": ""},
	} {
		got, err := tool.Execute(context.Background(), args)
		assert.NoError(t, err)
		assert.Equal(t, "Invalid crop amount. It must be positive.", got)
	}
}

func TestContextCropperInvalidDirection(t *testing.T) {
	tool := NewContextCropperTool(session.NewManager(1000, 0.8))

	got, err := tool.Execute(context.Background(), map[string]any{
		"crop_direction": "sideways", "crop_amount": float64(1), "deleted_messages_summary": "",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Invalid crop direction 'sideways'. It must be 'top' or 'bottom'.", got)
}

func TestContextCropperDelegatesToHistory(t *testing.T) {
	history := session.NewManager(1000, 0.8)
	history.AddMessage(session.TextMessage(session.RoleUser, "one"))
	history.AddMessage(session.TextMessage(session.RoleAssistant, "a1"))
	history.AddMessage(session.TextMessage(session.RoleUser, "two"))
	history.AddMessage(session.TextMessage(session.RoleAssistant, "a2"))

	tool := NewContextCropperTool(history)

	got, err := tool.Execute(context.Background(), map[string]any{
		"crop_direction":           "top",
		"crop_amount":              float64(2),
		"deleted_messages_summary": "old greeting round",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Crop message successful", got)
	assert.Len(t, history.CurrentMessages(), 2)

	got, err = tool.Execute(context.Background(), map[string]any{
		"crop_direction":           "bottom",
		"crop_amount":              float64(5),
		"deleted_messages_summary": "",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Cannot crop: invalid crop amount", got)
}
