package session

import (
	"fmt"
)

// CropDirection selects which end of the current session an explicit crop
// removes messages from.
type CropDirection string

const (
	CropTop    CropDirection = "top"
	CropBottom CropDirection = "bottom"
)

// CompressionNotice is the model-visible marker inserted wherever automatic
// compression removed history. It is a user-role message so the model can
// calibrate its behavior after a truncation instead of silently losing
// context.
const CompressionNotice = "[Previous conversation history has been compressed to save context window space]"

// singleSessionDeleteCount is how many messages immediately following the
// sole user message are dropped when only one logical round-trip exists.
const singleSessionDeleteCount = 3

// Manager owns the history stack: an ordered sequence of chat sessions where
// the last element is the session ordinary turn processing reads and mutates.
// Nested tasks push a fresh session and pop it on completion, so the stack is
// strictly LIFO and always holds at least one session.
//
// The manager also retains the most recent token-usage sample (older samples
// carry no signal for compression decisions) and applies the compression
// policy against a fixed token budget.
type Manager struct {
	stack             [][]Message
	usage             *TokenUsage
	maxTokens         int
	compressThreshold float64
}

// NewManager creates a history manager with a single empty session.
// maxTokens is the model's context budget; compression triggers once the
// latest usage sample exceeds compressThreshold * maxTokens.
func NewManager(maxTokens int, compressThreshold float64) *Manager {
	return &Manager{
		stack:             [][]Message{{}},
		maxTokens:         maxTokens,
		compressThreshold: compressThreshold,
	}
}

// AddMessage appends a message to the current session.
func (m *Manager) AddMessage(msg Message) {
	top := len(m.stack) - 1
	m.stack[top] = append(m.stack[top], msg)
}

// CurrentMessages returns a deep copy of the current session. Callers are
// free to annotate the copy (e.g. attach cache control) without corrupting
// stored history.
func (m *Manager) CurrentMessages() []Message {
	cur := m.stack[len(m.stack)-1]
	out := make([]Message, len(cur))
	for i, msg := range cur {
		out[i] = msg.Clone()
	}
	return out
}

// UpdateTokenUsage replaces the retained usage sample. Only the latest
// sample matters: compression decisions are about current pressure, not
// accumulated totals.
func (m *Manager) UpdateTokenUsage(usage TokenUsage) {
	u := usage
	m.usage = &u
}

// ContextWindow reports context usage as a percentage string with one
// decimal place, "0.0" until a sample has been recorded.
func (m *Manager) ContextWindow() string {
	if m.usage == nil || m.maxTokens == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", 100*float64(m.usage.TotalTokens)/float64(m.maxTokens))
}

// StartNewChat pushes an empty session onto the stack. Used by nested task
// forking; the parent session is untouched until the matching
// FinishChatGetResponse.
func (m *Manager) StartNewChat() {
	m.stack = append(m.stack, []Message{})
}

// FinishChatGetResponse pops the current session and returns the text of its
// last assistant message, or the empty string if none exists. The root
// session is never popped.
func (m *Manager) FinishChatGetResponse() string {
	if len(m.stack) <= 1 {
		return ""
	}
	popped := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	for i := len(popped) - 1; i >= 0; i-- {
		if popped[i].Role == RoleAssistant {
			return popped[i].Text()
		}
	}
	return ""
}

// AutoCompress runs the compression policy and reports whether it shrank the
// current session. It is invoked immediately before a request is built and
// again after a response is appended, so pressure from accumulated tool
// turns and from a single oversized response are both handled.
func (m *Manager) AutoCompress() bool {
	if !m.requiresCompression() {
		return false
	}
	return m.compressCurrent()
}

// requiresCompression is false until a usage sample exists: never compress
// blind.
func (m *Manager) requiresCompression() bool {
	if m.compressThreshold == 0 || m.usage == nil {
		return false
	}
	return float64(m.usage.TotalTokens) > m.compressThreshold*float64(m.maxTokens)
}

func (m *Manager) compressCurrent() bool {
	cur := m.stack[len(m.stack)-1]
	userIndices := userMessageIndices(cur)

	switch {
	case len(userIndices) > 1:
		m.compressOldestSession(cur, userIndices)
		return true
	case len(userIndices) == 1:
		m.compressSingleSession(cur, userIndices[0])
		return true
	}
	// No user message anchors the session; nothing is safe to drop.
	return false
}

// compressOldestSession drops one full round-trip: everything strictly
// before the second-oldest user message goes, except system messages, and a
// single compression notice takes its place.
func (m *Manager) compressOldestSession(cur []Message, userIndices []int) {
	secondOldest := userIndices[1]

	kept := systemMessages(cur[:secondOldest])
	kept = append(kept, TextMessage(RoleUser, CompressionNotice))
	kept = append(kept, cur[secondOldest:]...)

	m.stack[len(m.stack)-1] = kept
}

// compressSingleSession keeps the sole user message (never droppable) and
// deletes the messages immediately following it, the assistant/tool turns
// closest to the live user ask.
func (m *Manager) compressSingleSession(cur []Message, userIndex int) {
	start := userIndex + 1 + singleSessionDeleteCount
	if start > len(cur) {
		start = len(cur)
	}

	kept := systemMessages(cur[:userIndex])
	kept = append(kept, cur[userIndex])
	kept = append(kept, TextMessage(RoleUser, CompressionNotice))
	kept = append(kept, cur[start:]...)

	m.stack[len(m.stack)-1] = kept
}

// CropMessages is the explicit, tool-invokable crop. Unlike automatic
// compression it inserts no notice; the invoking tool narrates the deletion
// through its own summary argument. Business rejections come back as
// descriptive strings, never errors.
//
// The latest user message is never removed: for a top crop the bound is its
// index, for a bottom crop the count of messages strictly after it.
func (m *Manager) CropMessages(direction CropDirection, amount int) string {
	cur := m.stack[len(m.stack)-1]

	if len(cur) <= 1 {
		return "Cannot crop: insufficient messages"
	}
	if len(cur) < amount+2 {
		return "Cannot crop: invalid crop amount"
	}

	latestUserIndex := -1
	for i := len(cur) - 1; i >= 0; i-- {
		if cur[i].Role == RoleUser {
			latestUserIndex = i
			break
		}
	}
	if latestUserIndex == -1 {
		return "Cannot crop: no user messages found"
	}

	var maxCropAmount int
	if direction == CropTop {
		maxCropAmount = latestUserIndex
	} else {
		maxCropAmount = len(cur) - latestUserIndex - 1
	}
	if amount > maxCropAmount {
		return "Cannot crop: can't crop the latest user message"
	}

	var cropped []Message
	if direction == CropTop {
		// System messages survive a top crop regardless of position.
		cropped = systemMessages(cur)
		cropped = append(cropped, cur[amount:]...)
	} else {
		cropped = append(cropped, cur[:len(cur)-amount]...)
	}

	m.stack[len(m.stack)-1] = cropped
	return "Crop message successful"
}

func userMessageIndices(messages []Message) []int {
	var indices []int
	for i, msg := range messages {
		if msg.Role == RoleUser {
			indices = append(indices, i)
		}
	}
	return indices
}

func systemMessages(messages []Message) []Message {
	var out []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			out = append(out, msg)
		}
	}
	return out
}
