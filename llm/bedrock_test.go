package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickstar-ai/quickstar/session"
	"github.com/quickstar-ai/quickstar/tools"
)

type mockTool struct {
	name        string
	description string
	parameters  map[string]any
}

func (m *mockTool) Name() string               { return m.name }
func (m *mockTool) Description() string        { return m.description }
func (m *mockTool) Parameters() map[string]any { return m.parameters }
func (m *mockTool) Status() string             { return "" }

func (m *mockTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return "mock result", nil
}

func TestConvertMessagesToBedrockFormat(t *testing.T) {
	messages := []session.Message{
		session.TextMessage(session.RoleSystem, "be helpful"),
		session.TextMessage(session.RoleUser, "Hello, world!"),
		session.TextMessage(session.RoleAssistant, "Hi! How can I help?"),
	}

	result, systemPrompt := convertMessagesToBedrockFormat(messages)
	assert.Equal(t, "be helpful", systemPrompt)
	require.Len(t, result, 2)
	assert.Equal(t, "user", result[0]["role"])
	assert.Equal(t, "assistant", result[1]["role"])
}

func TestConvertMessagesToBedrockFormatToolRoundTrip(t *testing.T) {
	messages := []session.Message{
		session.TextMessage(session.RoleUser, "list files"),
		{
			Role: session.RoleAssistant,
			ToolCalls: []session.ToolCall{
				{ID: "call_1", Name: "cmd_runner", Arguments: `{"command": "ls"}`},
			},
		},
		{
			Role:       session.RoleTool,
			ToolCallID: "call_1",
			Name:       "cmd_runner",
			Content:    []session.ContentPart{{Type: "text", Text: "a.txt"}},
		},
	}

	result, _ := convertMessagesToBedrockFormat(messages)
	require.Len(t, result, 3)

	toolUse := result[1]["content"].([]map[string]any)[0]
	assert.Equal(t, "tool_use", toolUse["type"])
	assert.Equal(t, "call_1", toolUse["id"])

	toolResult := result[2]["content"].([]map[string]any)[0]
	assert.Equal(t, "tool_result", toolResult["type"])
	assert.Equal(t, "call_1", toolResult["tool_use_id"])
	assert.Equal(t, "a.txt", toolResult["content"])
}

func TestCreateBedrockRequestIncludesTools(t *testing.T) {
	tool := &mockTool{
		name:        "read_file",
		description: "Reads a file",
		parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
		},
	}

	body, err := createBedrockRequest(nil, "sys", []tools.Tool{tool})
	require.NoError(t, err)

	var request map[string]any
	require.NoError(t, json.Unmarshal(body, &request))
	assert.Equal(t, "sys", request["system"])
	toolDefs := request["tools"].([]any)
	require.Len(t, toolDefs, 1)
	def := toolDefs[0].(map[string]any)
	assert.Equal(t, "read_file", def["name"])
	assert.Equal(t, "object", def["input_schema"].(map[string]any)["type"])
}

func TestProcessBedrockResponse(t *testing.T) {
	body := []byte(`{
		"content": [
			{"type": "text", "text": "Running it now."},
			{"type": "tool_use", "id": "toolu_1", "name": "cmd_runner", "input": {"command": "ls"}}
		],
		"usage": {"input_tokens": 120, "output_tokens": 30}
	}`)

	msg, usage, err := processBedrockResponse(body)
	require.NoError(t, err)
	assert.Equal(t, "Running it now.", msg.Text())
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "toolu_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "cmd_runner", msg.ToolCalls[0].Name)

	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.ToolCalls[0].Arguments), &args))
	assert.Equal(t, "ls", args["command"])

	require.NotNil(t, usage)
	assert.Equal(t, 120, usage.InputTokens)
	assert.Equal(t, 150, usage.TotalTokens)
}

func TestProcessBedrockResponseError(t *testing.T) {
	_, _, err := processBedrockResponse([]byte(`{"error": {"message": "throttled"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bedrock API error")
}
