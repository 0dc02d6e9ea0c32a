package llm

import (
	"context"
	"os"
	"strconv"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/quickstar-ai/quickstar/errors"
	"github.com/quickstar-ai/quickstar/session"
	"github.com/quickstar-ai/quickstar/tools"
)

// OpenAILLMClient is a client for the OpenAI Chat Completion API and
// OpenAI-compatible endpoints.
type OpenAILLMClient struct {
	client    *openai.Client
	model     string
	totalCost float64
}

// NewOpenAILLMClient creates a new OpenAILLMClient. It requires the
// OPENAI_API_KEY environment variable to be set and supports
// OPENAI_BASE_URL for custom API endpoints.
func NewOpenAILLMClient(ctx context.Context, modelName string) (*OpenAILLMClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	// The v2 SDK uses functional options for configuration.
	c := openai.NewClient(options...)
	return &OpenAILLMClient{client: &c, model: modelName}, nil
}

// Chat sends a non-streaming chat request to OpenAI.
func (o *OpenAILLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, *session.TokenUsage, error) {
	params := o.buildParams(messages, availableTools)

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to send message to OpenAI")
	}

	usage := o.recordUsage(resp.Usage)
	if len(resp.Choices) == 0 {
		msg := session.TextMessage(session.RoleAssistant, "")
		return &msg, usage, nil
	}
	return processOpenaiMessage(resp.Choices[0].Message), usage, nil
}

// ChatStream streams the completion, pushing content deltas through onDelta
// and resolving the accumulated final message once the stream ends.
func (o *OpenAILLMClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool, onDelta func(string)) (*session.Message, *session.TokenUsage, error) {
	params := o.buildParams(messages, availableTools)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	fullContent := ""
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			fullContent += chunk.Choices[0].Delta.Content
			onDelta(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, nil, errors.Wrapf(err, "streaming request to OpenAI failed")
	}

	usage := o.recordUsage(acc.Usage)
	if len(acc.Choices) == 0 {
		// No terminal message object arrived; synthesize one from the
		// accumulated deltas.
		msg := session.TextMessage(session.RoleAssistant, fullContent)
		return &msg, usage, nil
	}
	return processOpenaiMessage(acc.Choices[0].Message), usage, nil
}

// TotalCost reports the cost accumulated from the provider's extra "cost"
// usage field. The field is provider-specific and read defensively.
func (o *OpenAILLMClient) TotalCost() float64 { return o.totalCost }

func (o *OpenAILLMClient) buildParams(messages []session.Message, availableTools []tools.Tool) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: convertMessagesToOpenaiContent(messages),
		Tools:    convertToolsToOpenAITools(availableTools),
	}
}

func (o *OpenAILLMClient) recordUsage(u openai.CompletionUsage) *session.TokenUsage {
	if u.TotalTokens == 0 {
		return nil
	}
	if raw, ok := u.JSON.ExtraFields["cost"]; ok {
		if cost, err := strconv.ParseFloat(raw.Raw(), 64); err == nil {
			o.totalCost += cost
		}
	}
	return &session.TokenUsage{
		InputTokens:  int(u.PromptTokens),
		OutputTokens: int(u.CompletionTokens),
		TotalTokens:  int(u.TotalTokens),
	}
}

// processOpenaiMessage converts an OpenAI completion message into our
// internal session.Message format. Tool call arguments stay as the raw JSON
// string; parsing them is the orchestrator's job.
func processOpenaiMessage(choice openai.ChatCompletionMessage) *session.Message {
	msg := session.TextMessage(session.RoleAssistant, choice.Content)
	for _, tc := range choice.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, session.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return &msg
}

// convertMessagesToOpenaiContent converts our internal message format to
// OpenAI's. Cache-control annotations have no OpenAI equivalent and are
// dropped here; they are a hint, not a correctness requirement.
func convertMessagesToOpenaiContent(messages []session.Message) []openai.ChatCompletionMessageParamUnion {
	var chatMessages []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			chatMessages = append(chatMessages, openai.SystemMessage(msg.Text()))
		case session.RoleAssistant:
			assistantMessage := openai.ChatCompletionMessage{
				Role:    "assistant",
				Content: msg.Text(),
			}
			for _, tc := range msg.ToolCalls {
				assistantMessage.ToolCalls = append(assistantMessage.ToolCalls, openai.ChatCompletionMessageToolCallUnion{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageFunctionToolCallFunction{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			chatMessages = append(chatMessages, assistantMessage.ToParam())
		case session.RoleTool:
			chatMessages = append(chatMessages, openai.ToolMessage(msg.Text(), msg.ToolCallID))
		case session.RoleUser:
			fallthrough
		default:
			chatMessages = append(chatMessages, openai.UserMessage(msg.Text()))
		}
	}
	return chatMessages
}

// convertToolsToOpenAITools converts our Tool interface to the OpenAI tool
// format, carrying each tool's full parameter schema.
func convertToolsToOpenAITools(ts []tools.Tool) []openai.ChatCompletionToolUnionParam {
	if len(ts) == 0 {
		return nil
	}
	var openAITools []openai.ChatCompletionToolUnionParam
	for _, t := range ts {
		openAITools = append(openAITools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String(t.Description()),
			Parameters:  openai.FunctionParameters(t.Parameters()),
		}))
	}
	return openAITools
}
