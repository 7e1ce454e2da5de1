// Package provider defines the wire-neutral message model shared by the
// generation loop and the concrete LLM clients. Concrete SDK types stay
// inside the provider implementations.
package provider

import "context"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Stop reasons reported by the model backend.
const (
	StopReasonEndTurn = "end_turn"
	StopReasonToolUse = "tool_use"
)

// Content block types.
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock is one element of a message: plain text, a tool invocation
// requested by the model, or a tool result sent back to it. Type selects
// which fields are meaningful.
type ContentBlock struct {
	Type string `json:"type"`

	// Type == "text"
	Text string `json:"text,omitempty"`

	// Type == "tool_use"
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`

	// Type == "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// ToolUseBlock builds a tool invocation block.
func ToolUseBlock(id, name string, input map[string]interface{}) ContentBlock {
	return ContentBlock{Type: BlockTypeToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock builds a tool result block correlated by request id.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockTypeToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// Message is one role-tagged turn in a conversation.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ToolDefinition describes a capability advertised to the model.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Request is one blocking "create message" call. Tools and ToolChoiceAuto
// are attached only when the caller offers tools for this call.
type Request struct {
	System         string
	Messages       []Message
	Tools          []ToolDefinition
	ToolChoiceAuto bool
}

// Usage reports token consumption for a single model call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's reply to a Request.
type Response struct {
	StopReason string
	Content    []ContentBlock
	Usage      Usage
}

// FirstText returns the first text block of the response, or "".
func (r *Response) FirstText() string {
	for _, block := range r.Content {
		if block.Type == BlockTypeText {
			return block.Text
		}
	}
	return ""
}

// ToolUses returns the tool invocation blocks of the response in order.
func (r *Response) ToolUses() []ContentBlock {
	var out []ContentBlock
	for _, block := range r.Content {
		if block.Type == BlockTypeToolUse {
			out = append(out, block)
		}
	}
	return out
}

// Provider is the interface answer-generation model clients must satisfy.
type Provider interface {
	CreateMessage(ctx context.Context, req Request) (*Response, error)
}

// Embedder is the interface embedding clients must satisfy.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
