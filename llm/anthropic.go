package llm

import (
	"context"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/quickstar-ai/quickstar/errors"
	"github.com/quickstar-ai/quickstar/session"
	"github.com/quickstar-ai/quickstar/tools"
)

// AnthropicLLMClient is a client for the Anthropic Messages API.
type AnthropicLLMClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicLLMClient creates a new AnthropicLLMClient.
// It requires the ANTHROPIC_API_KEY environment variable to be set.
func NewAnthropicLLMClient(ctx context.Context, modelName string) (*AnthropicLLMClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicLLMClient{
		client: &client,
		model:  modelName,
	}, nil
}

// Chat sends a non-streaming chat request to the Anthropic API.
func (a *AnthropicLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, *session.TokenUsage, error) {
	params := a.buildParams(messages, availableTools)

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to send message to Anthropic")
	}

	return processAnthropicResponse(resp), anthropicUsage(resp.Usage), nil
}

// ChatStream streams the completion, pushing text deltas through onDelta
// and accumulating the final message from the event stream.
func (a *AnthropicLLMClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool, onDelta func(string)) (*session.Message, *session.TokenUsage, error) {
	params := a.buildParams(messages, availableTools)

	stream := a.client.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to accumulate Anthropic stream event")
		}
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				onDelta(deltaVariant.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, nil, errors.Wrapf(err, "streaming request to Anthropic failed")
	}

	return processAnthropicResponse(&message), anthropicUsage(message.Usage), nil
}

func (a *AnthropicLLMClient) TotalCost() float64 { return 0 }

func (a *AnthropicLLMClient) buildParams(messages []session.Message, availableTools []tools.Tool) anthropic.MessageNewParams {
	anthropicMessages, systemPrompt := convertMessagesToAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 4096,
		Messages:  anthropicMessages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	anthropicTools := convertToolsToAnthropicTools(availableTools)
	params.Tools = make([]anthropic.ToolUnionParam, len(anthropicTools))
	for i, toolParam := range anthropicTools {
		params.Tools[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return params
}

func anthropicUsage(u anthropic.Usage) *session.TokenUsage {
	total := int(u.InputTokens + u.OutputTokens)
	if total == 0 {
		return nil
	}
	return &session.TokenUsage{
		InputTokens:  int(u.InputTokens),
		OutputTokens: int(u.OutputTokens),
		TotalTokens:  total,
	}
}

// convertMessagesToAnthropicMessages converts our internal message format to
// Anthropic's format. The ephemeral cache-control annotation maps directly
// onto Anthropic's prompt caching.
func convertMessagesToAnthropicMessages(messages []session.Message) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case session.RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: anthropicTextBlocks(msg.Content),
			})
		case session.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				var contentItems []anthropic.ContentBlockParamUnion
				for _, tc := range msg.ToolCalls {
					contentItems = append(contentItems, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							Type:  "tool_use",
							ID:    tc.ID,
							Name:  tc.Name,
							Input: []byte(tc.Arguments),
						}})
				}
				anthropicMessages = append(anthropicMessages, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: contentItems,
				})
			} else if msg.Text() != "" {
				anthropicMessages = append(anthropicMessages, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: anthropicTextBlocks(msg.Content),
				})
			}
		case session.RoleTool:
			anthropicMessages = append(anthropicMessages, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: msg.ToolCallID,
						Content: []anthropic.ToolResultBlockParamContentUnion{{
							OfText: &anthropic.TextBlockParam{
								Text: msg.Text(),
							},
						}},
					},
				}},
			})
		case session.RoleSystem:
			// The last system message wins as the system prompt.
			systemPrompt = msg.Text()
		}
	}

	return anthropicMessages, systemPrompt
}

func anthropicTextBlocks(parts []session.ContentPart) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range parts {
		block := anthropic.TextBlockParam{Text: part.Text}
		if part.CacheControl != nil {
			block.CacheControl = anthropic.NewCacheControlEphemeralParam()
		}
		blocks = append(blocks, anthropic.ContentBlockParamUnion{OfText: &block})
	}
	return blocks
}

// convertToolsToAnthropicTools converts our Tool interface to Anthropic's
// tool format.
func convertToolsToAnthropicTools(ts []tools.Tool) []anthropic.ToolParam {
	if len(ts) == 0 {
		return nil
	}

	var anthropicTools []anthropic.ToolParam
	for _, t := range ts {
		schema := anthropic.ToolInputSchemaParam{
			Properties: t.Parameters()["properties"],
		}
		anthropicTools = append(anthropicTools, anthropic.ToolParam{
			Name:        t.Name(),
			Description: anthropic.String(t.Description()),
			InputSchema: schema,
		})
	}
	return anthropicTools
}

// processAnthropicResponse converts an Anthropic API response into our
// internal session.Message format, keeping tool input as raw JSON.
func processAnthropicResponse(resp *anthropic.Message) *session.Message {
	var responseContent string
	var toolCalls []session.ToolCall

	for _, content := range resp.Content {
		switch c := content.AsAny().(type) {
		case anthropic.TextBlock:
			responseContent += c.Text
		case anthropic.ToolUseBlock:
			toolCalls = append(toolCalls, session.ToolCall{
				ID:        c.ID,
				Name:      c.Name,
				Arguments: string(c.Input),
			})
		}
	}

	msg := session.TextMessage(session.RoleAssistant, responseContent)
	msg.ToolCalls = toolCalls
	return &msg
}
