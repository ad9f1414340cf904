// Package llm holds the provider-agnostic conversation types exchanged with
// reasoning models.
package llm

import "strings"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Message represents a single message in a conversation.
// Content is stored as an array of ContentBlocks so tool calls and their
// results travel alongside text in a provider-agnostic way.
type Message struct {
	Role    string         `json:"role"`    // "user", "assistant"
	Content []ContentBlock `json:"content"` // Array of content blocks
}

// ContentBlock represents a single piece of content within a message.
// The Type field determines which other fields are populated.
type ContentBlock struct {
	Type string `json:"type"` // "text", "tool_use", "tool_result"

	// Text content (type="text")
	Text string `json:"text,omitempty"`

	// Tool use (type="tool_use") - assistant requesting tool execution
	ToolUseID string         `json:"tool_use_id,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolInput map[string]any `json:"tool_input,omitempty"`

	// Tool result (type="tool_result") - result from tool execution
	ToolResultID string `json:"tool_result_id,omitempty"` // References the tool_use_id
	ToolOutput   string `json:"tool_output,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`
}

// NewTextMessage creates a simple text message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Type: BlockText, Text: text},
		},
	}
}

// NewToolResult creates a tool_result block answering the given tool_use id.
func NewToolResult(toolUseID, output string, isError bool) ContentBlock {
	return ContentBlock{
		Type:         BlockToolResult,
		ToolResultID: toolUseID,
		ToolOutput:   output,
		IsError:      isError,
	}
}

// GetText returns the concatenated text content from all text blocks in the message.
func (m *Message) GetText() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == BlockText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// ToolUses returns the message's tool_use blocks in order.
func (m *Message) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, block := range m.Content {
		if block.Type == BlockToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}
