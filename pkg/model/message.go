package model

// Message represents a single conversational turn exchanged with a model.
// Exactly one of the payload groups is normally populated per turn: Content
// (with optional Images) for user text, Content plus ToolCalls for assistant
// turns, and ToolResults for the user turn that answers a tool-using
// assistant turn.
type Message struct {
	Role        string
	Content     string
	Images      []ImageBlock
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall captures a tool invocation emitted by assistant messages. The ID
// is assigned by the provider and must be echoed on the matching ToolResult.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult answers one ToolCall from the preceding assistant turn.
type ToolResult struct {
	CallID  string
	Content string
	IsError bool
}

// ImageBlock is a base64-encoded inline image attached to a user turn.
type ImageBlock struct {
	MediaType string
	Data      string
}

// ToolSpec declares one tool in the catalog sent with a request. InputSchema
// is marshalled verbatim into the provider's input_schema field.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema any
}

// Request carries everything a single blocking model call needs. Tools may be
// empty for plain chat; ForceTool asks the provider to require a tool call on
// every turn (tool_choice "any" for Anthropic).
type Request struct {
	System      string
	Messages    []Message
	Tools       []ToolSpec
	ForceTool   bool
	MaxTokens   int
	Temperature *float64
}
