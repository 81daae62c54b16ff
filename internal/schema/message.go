// Package schema contains the core types and contracts shared across
// farmstay packages. Concrete implementations live in their respective
// packages; this package is the single canonical source of truth.
package schema

import "encoding/json"

// Message sender values as they appear in the message log. Inbound guest
// messages are stored as "user"; replies typed by a human operator arrive as
// "admin"; the bot's own replies are stored as "assistant".
const (
	SenderUser      = "user"
	SenderAdmin     = "admin"
	SenderAssistant = "assistant"
)

// RoleForSender maps a stored sender value to the LLM chat role.
// "user" stays "user"; everything else (admin, assistant, legacy values)
// speaks with the bot's voice and becomes "assistant".
func RoleForSender(sender string) string {
	if sender == SenderUser {
		return "user"
	}
	return "assistant"
}

// ChatTurn is one entry of a conversation window handed to prompt
// construction: a role ("user" or "assistant") and the message text.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall represents one function call in an assistant message.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToWireMap serialises a ToolCall into the OpenAI wire-format map.
// Used by provider implementations when building the JSON request body.
func (tc ToolCall) ToWireMap() map[string]any {
	argsJSON, _ := json.Marshal(tc.Arguments)
	return map[string]any{
		"id":   tc.ID,
		"type": "function",
		"function": map[string]any{
			"name":      tc.Name,
			"arguments": string(argsJSON),
		},
	}
}

// Message is one entry in the conversation history sent to the LLM.
//
// Role is one of: "system", "user", "assistant", "tool".
//
// Content holds the message text:
//   - system / user / tool: plain string
//   - assistant: *string (may be nil when only tool calls are present)
//
// ToolCalls is populated for assistant messages that invoke tools.
// ToolCallID and ToolName are set for tool-result messages.
type Message struct {
	Role       string
	Content    any // string | *string
	ToolCalls  []ToolCall
	ToolCallID string // "tool" role only
	ToolName   string // "tool" role only
}

// Text returns the message content as a plain string, or "" when the
// assistant message carries only tool calls.
func (m Message) Text() string {
	switch v := m.Content.(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

func NewAssistantMessage(content *string, toolCalls []ToolCall) Message {
	return Message{Role: "assistant", Content: content, ToolCalls: toolCalls}
}
