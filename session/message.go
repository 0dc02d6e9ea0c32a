package session

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// CacheControl is an ephemeral caching hint attached to the last content part
// of an outgoing request. Providers that do not understand it ignore it.
type CacheControl struct {
	Type string `json:"type"`
}

// ContentPart is one typed segment of a message body. Content is a sequence
// rather than a bare string so that annotations (cache control, reminders)
// can be attached to individual segments.
type ContentPart struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// ToolCall is a structured request from the model to invoke a tool. Arguments
// is the raw JSON string as supplied by the provider; it is parsed lazily by
// the orchestrator so that malformed arguments surface as a tool result
// instead of a decoding failure here.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single chat message. Tool-role messages carry the ToolCallID
// of the assistant tool call they answer.
type Message struct {
	Role       Role          `json:"role"`
	Content    []ContentPart `json:"content"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Name       string        `json:"name,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
}

// TokenUsage is the usage sample reported for one completed model turn.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// TextMessage builds a message with a single text content part.
func TextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentPart{{Type: "text", Text: text}},
	}
}

// Text concatenates the text of all content parts.
func (m Message) Text() string {
	var out string
	for _, part := range m.Content {
		out += part.Text
	}
	return out
}

// Clone returns a deep copy of the message. Callers that annotate outgoing
// requests must work on copies so stored history is never mutated.
func (m Message) Clone() Message {
	c := m
	if m.Content != nil {
		c.Content = make([]ContentPart, len(m.Content))
		for i, part := range m.Content {
			c.Content[i] = part
			if part.CacheControl != nil {
				cc := *part.CacheControl
				c.Content[i].CacheControl = &cc
			}
		}
	}
	if m.ToolCalls != nil {
		c.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		copy(c.ToolCalls, m.ToolCalls)
	}
	return c
}
