package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/quickstar-ai/quickstar/errors"
	"github.com/quickstar-ai/quickstar/session"
	"github.com/quickstar-ai/quickstar/tools"
)

// BedrockLLMClient is a client for Anthropic models on AWS Bedrock. The
// request and response bodies are raw Anthropic-on-Bedrock JSON payloads.
type BedrockLLMClient struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockLLMClient creates a new BedrockLLMClient.
// It requires AWS credentials to be configured in the environment.
func NewBedrockLLMClient(ctx context.Context, modelID string) (*BedrockLLMClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}

	return &BedrockLLMClient{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

// Chat sends a chat request to the Anthropic model via AWS Bedrock.
func (b *BedrockLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, *session.TokenUsage, error) {
	bedrockMessages, systemPrompt := convertMessagesToBedrockFormat(messages)

	requestBody, err := createBedrockRequest(bedrockMessages, systemPrompt, availableTools)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create Bedrock request")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to invoke Bedrock model")
	}

	return processBedrockResponse(resp.Body)
}

// ChatStream satisfies the stream contract degenerately: the final text is
// emitted as a single delta.
func (b *BedrockLLMClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool, onDelta func(string)) (*session.Message, *session.TokenUsage, error) {
	msg, usage, err := b.Chat(ctx, messages, availableTools)
	if err != nil {
		return nil, nil, err
	}
	if text := msg.Text(); text != "" {
		onDelta(text)
	}
	return msg, usage, nil
}

func (b *BedrockLLMClient) TotalCost() float64 { return 0 }

// convertMessagesToBedrockFormat converts our internal message format to
// Anthropic's Bedrock payload format.
func convertMessagesToBedrockFormat(messages []session.Message) ([]map[string]any, string) {
	var bedrockMessages []map[string]any
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			systemPrompt = msg.Text()
		case session.RoleUser:
			bedrockMessages = append(bedrockMessages, map[string]any{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": msg.Text()},
				},
			})
		case session.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				var toolUses []map[string]any
				for _, tc := range msg.ToolCalls {
					toolUses = append(toolUses, map[string]any{
						"type":  "tool_use",
						"id":    tc.ID,
						"name":  tc.Name,
						"input": json.RawMessage(tc.Arguments),
					})
				}
				bedrockMessages = append(bedrockMessages, map[string]any{
					"role":    "assistant",
					"content": toolUses,
				})
			} else if msg.Text() != "" {
				bedrockMessages = append(bedrockMessages, map[string]any{
					"role": "assistant",
					"content": []map[string]any{
						{"type": "text", "text": msg.Text()},
					},
				})
			}
		case session.RoleTool:
			bedrockMessages = append(bedrockMessages, map[string]any{
				"role": "user",
				"content": []map[string]any{
					{
						"type":        "tool_result",
						"tool_use_id": msg.ToolCallID,
						"content":     msg.Text(),
					},
				},
			})
		}
	}

	return bedrockMessages, systemPrompt
}

// createBedrockRequest creates the request body for Anthropic models on
// Bedrock.
func createBedrockRequest(messages []map[string]any, systemPrompt string, availableTools []tools.Tool) ([]byte, error) {
	request := map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        4096,
		"messages":          messages,
	}

	if systemPrompt != "" {
		request["system"] = systemPrompt
	}

	if len(availableTools) > 0 {
		var toolDefs []map[string]any
		for _, tool := range availableTools {
			toolDefs = append(toolDefs, map[string]any{
				"name":         tool.Name(),
				"description":  tool.Description(),
				"input_schema": tool.Parameters(),
			})
		}
		request["tools"] = toolDefs
	}

	return json.Marshal(request)
}

// processBedrockResponse converts a Bedrock API response into our internal
// session.Message format.
func processBedrockResponse(body []byte) (*session.Message, *session.TokenUsage, error) {
	var response map[string]any
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}

	if errMsg, ok := response["error"]; ok {
		return nil, nil, errors.New("Bedrock API error: %v", errMsg)
	}

	var usage *session.TokenUsage
	if u, ok := response["usage"].(map[string]any); ok {
		in, _ := u["input_tokens"].(float64)
		out, _ := u["output_tokens"].(float64)
		if in+out > 0 {
			usage = &session.TokenUsage{
				InputTokens:  int(in),
				OutputTokens: int(out),
				TotalTokens:  int(in + out),
			}
		}
	}

	contentArray, ok := response["content"].([]any)
	if !ok {
		msg := session.TextMessage(session.RoleAssistant, "")
		return &msg, usage, nil
	}

	var responseContent string
	var toolCalls []session.ToolCall

	for i, item := range contentArray {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}

		switch itemMap["type"] {
		case "text":
			if text, ok := itemMap["text"].(string); ok {
				responseContent += text
			}
		case "tool_use":
			name, ok := itemMap["name"].(string)
			if !ok {
				continue
			}
			input, ok := itemMap["input"].(map[string]any)
			if !ok {
				continue
			}
			argsBytes, err := json.Marshal(input)
			if err != nil {
				continue
			}
			id := fmt.Sprintf("call_%d_%s", i, name)
			if toolID, ok := itemMap["id"].(string); ok {
				id = toolID
			}
			toolCalls = append(toolCalls, session.ToolCall{
				ID:        id,
				Name:      name,
				Arguments: string(argsBytes),
			})
		}
	}

	msg := session.TextMessage(session.RoleAssistant, responseContent)
	msg.ToolCalls = toolCalls
	return &msg, usage, nil
}
