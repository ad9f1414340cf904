package llm

// ChatRequest represents a provider-agnostic chat completion request.
type ChatRequest struct {
	// Model name (e.g., "claude-sonnet-4", "gpt-4o", "llama3.1")
	Model string `json:"model"`

	// System prompt, sent separately from messages where the provider allows.
	System string `json:"system,omitempty"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Tools the model may call.
	Tools []ToolDefinition `json:"tools,omitempty"`

	// Generation parameters (unified across providers)
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// ToolDefinition describes a callable tool with a JSON schema for its input
// object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`
	Required    []string       `json:"required,omitempty"`
}

// Schema returns the full JSON schema of the tool's input object.
func (t ToolDefinition) Schema() map[string]any {
	props := t.Properties
	if props == nil {
		props = map[string]any{}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(t.Required) > 0 {
		schema["required"] = t.Required
	}
	return schema
}
