package llm

import (
	"context"
	"fmt"

	"github.com/quickstar-ai/quickstar/session"
	"github.com/quickstar-ai/quickstar/tools"
)

// Client is the interface for interacting with a chat-completion provider.
//
// Streaming is a two-channel protocol: text deltas are pushed through the
// onDelta callback while the final structured message (and the usage sample,
// when the provider reports one) is the return value. Providers without
// delta support may satisfy ChatStream degenerately by emitting the final
// text once.
type Client interface {
	Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, *session.TokenUsage, error)
	ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool, onDelta func(string)) (*session.Message, *session.TokenUsage, error)
	// TotalCost is the best-effort accumulated provider cost in dollars.
	// Providers that report no cost return 0.
	TotalCost() float64
}

// MockLLMClient is a placeholder for running without credentials and for
// tests.
type MockLLMClient struct{}

func (m *MockLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, *session.TokenUsage, error) {
	lastText := ""
	if len(messages) > 0 {
		lastText = messages[len(messages)-1].Text()
	}
	msg := session.TextMessage(session.RoleAssistant,
		fmt.Sprintf("I am a mock LLM. You said: '%s'. I cannot use tools yet.", lastText))
	return &msg, &session.TokenUsage{}, nil
}

func (m *MockLLMClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool, onDelta func(string)) (*session.Message, *session.TokenUsage, error) {
	msg, usage, err := m.Chat(ctx, messages, availableTools)
	if err != nil {
		return nil, nil, err
	}
	onDelta(msg.Text())
	return msg, usage, nil
}

func (m *MockLLMClient) TotalCost() float64 { return 0 }
