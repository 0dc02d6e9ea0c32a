package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageText(t *testing.T) {
	msg := Message{
		Role: RoleTool,
		Content: []ContentPart{
			{Type: "text", Text: "result"},
			{Type: "text", Text: "\nreminder"},
		},
	}
	assert.Equal(t, "result\nreminder", msg.Text())
	assert.Equal(t, "", Message{}.Text())
}

func TestMessageClone(t *testing.T) {
	original := Message{
		Role:       RoleAssistant,
		Content:    []ContentPart{{Type: "text", Text: "answer", CacheControl: &CacheControl{Type: "ephemeral"}}},
		ToolCallID: "call_1",
		ToolCalls:  []ToolCall{{ID: "call_2", Name: "probe", Arguments: `{}`}},
	}

	clone := original.Clone()
	clone.Content[0].Text = "mutated"
	clone.Content[0].CacheControl.Type = "changed"
	clone.ToolCalls[0].Name = "other"

	assert.Equal(t, "answer", original.Content[0].Text)
	assert.Equal(t, "ephemeral", original.Content[0].CacheControl.Type)
	assert.Equal(t, "probe", original.ToolCalls[0].Name)
}
